package peerplays

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	defaultExpiration  = 30 * time.Second
	maxSigningAttempts = 100
)

type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     time.Time
	Operations     []Operation
	Signatures     []string
}

// NewTransaction references the head block of props so the chain rejects the
// transaction on a fork.
func NewTransaction(props *DynamicGlobalProperties, ops ...Operation) (*Transaction, error) {
	blockID, err := hex.DecodeString(props.HeadBlockID)
	if err != nil {
		return nil, fmt.Errorf("invalid head block id: %w", err)
	}

	if len(blockID) < 8 {
		return nil, fmt.Errorf("invalid head block id length %d", len(blockID))
	}

	return &Transaction{
		RefBlockNum:    uint16(props.HeadBlockNumber & 0xffff),
		RefBlockPrefix: uint32(blockID[4]) | uint32(blockID[5])<<8 | uint32(blockID[6])<<16 | uint32(blockID[7])<<24,
		Expiration:     time.Time(props.Time).Add(defaultExpiration),
		Operations:     ops,
	}, nil
}

func (tx *Transaction) Serialize() []byte {
	e := NewEncoder()
	e.WriteUint16(tx.RefBlockNum)
	e.WriteUint32(tx.RefBlockPrefix)
	e.WriteUint32(uint32(tx.Expiration.Unix()))
	e.WriteUvarint(uint64(len(tx.Operations)))
	for _, op := range tx.Operations {
		e.WriteUvarint(op.OperationID())
		op.Serialize(e)
	}
	e.WriteUvarint(0) // extensions

	return e.Bytes()
}

func (tx *Transaction) Digest(chainID string) ([32]byte, error) {
	chain, err := hex.DecodeString(chainID)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid chain id: %w", err)
	}

	return sha256.Sum256(append(chain, tx.Serialize()...)), nil
}

// Sign signs the transaction with every key. Nodes only accept canonical
// signatures, so the expiration is bumped by one second until all signatures
// are canonical.
func (tx *Transaction) Sign(chainID string, keys ...*PrivateKey) error {
	for attempt := 0; attempt < maxSigningAttempts; attempt++ {
		digest, err := tx.Digest(chainID)
		if err != nil {
			return err
		}

		signatures := make([]string, 0, len(keys))
		for _, key := range keys {
			sig, err := ecdsa.SignCompact(key.key, digest[:], true)
			if err != nil {
				return err
			}

			if !isCanonical(sig) {
				break
			}

			signatures = append(signatures, hex.EncodeToString(sig))
		}

		if len(signatures) == len(keys) {
			tx.Signatures = signatures
			return nil
		}

		tx.Expiration = tx.Expiration.Add(time.Second)
	}

	return errors.New("cannot produce canonical signature")
}

func isCanonical(sig []byte) bool {
	return len(sig) == 65 &&
		sig[1]&0x80 == 0 &&
		!(sig[1] == 0 && sig[2]&0x80 == 0) &&
		sig[33]&0x80 == 0 &&
		!(sig[33] == 0 && sig[34]&0x80 == 0)
}

func (tx *Transaction) MarshalJSON() ([]byte, error) {
	ops := make([]operationEnvelope, 0, len(tx.Operations))
	for _, op := range tx.Operations {
		ops = append(ops, operationEnvelope{op: op})
	}

	signatures := tx.Signatures
	if signatures == nil {
		signatures = []string{}
	}

	return json.Marshal(map[string]any{
		"ref_block_num":    tx.RefBlockNum,
		"ref_block_prefix": tx.RefBlockPrefix,
		"expiration":       Time(tx.Expiration),
		"operations":       ops,
		"extensions":       []any{},
		"signatures":       signatures,
	})
}

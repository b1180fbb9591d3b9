// Package peerplaystest runs an in-process websocket node answering graphene
// "call" requests.
package peerplaystest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Handler computes the result of one call from the arguments of the call.
type Handler func(args []json.RawMessage) (any, error)

type Call struct {
	Api    string
	Method string
	Args   []json.RawMessage
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// Node answers calls with the result registered for the method. A result may
// be a Handler, any other value is returned as is. Unknown methods fail.
type Node struct {
	mutex   sync.Mutex
	results map[string]any
	calls   []Call
}

func NewNode(t testing.TB, results map[string]any) (*Node, string) {
	if results == nil {
		results = map[string]any{}
	}

	node := &Node{results: results}
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req rpcRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}

			if err := conn.WriteJSON(node.answer(req)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return node, "ws" + strings.TrimPrefix(server.URL, "http")
}

func (n *Node) answer(req rpcRequest) map[string]any {
	var call Call
	if len(req.Params) >= 2 {
		_ = json.Unmarshal(req.Params[0], &call.Api)
		_ = json.Unmarshal(req.Params[1], &call.Method)
	}
	if len(req.Params) >= 3 {
		_ = json.Unmarshal(req.Params[2], &call.Args)
	}

	n.mutex.Lock()
	n.calls = append(n.calls, call)
	result, ok := n.results[call.Method]
	n.mutex.Unlock()

	var err error
	if !ok {
		err = errors.New("unknown method " + call.Method)
	} else if handler, isHandler := result.(Handler); isHandler {
		result, err = handler(call.Args)
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if err != nil {
		resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
	} else {
		resp["result"] = result
	}

	return resp
}

func (n *Node) Set(method string, result any) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.results[method] = result
}

func (n *Node) Delete(method string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	delete(n.results, method)
}

// Called counts the calls of method.
func (n *Node) Called(method string) int {
	return len(n.Calls(method))
}

func (n *Node) Calls(method string) []Call {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	var calls []Call
	for _, c := range n.calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}

	return calls
}

package main

import (
	"fmt"

	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/authenticator"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) generateToken(cctx *cli.Context) error {
	role := cctx.String("role")
	if role != model.RoleOperator && role != model.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}

	engine := authenticator.NewTokenEngine[model.AccessToken](xcontext.Configs(s.ctx).Token)
	subject := cctx.String("subject")
	token, err := engine.Generate(subject, model.AccessToken{ID: subject, Role: role})
	if err != nil {
		return err
	}

	fmt.Fprintln(cctx.App.Writer, token)
	return nil
}

package main

import (
	"fmt"

	"github.com/biru-ka2/Attendify-sub000/apps/api/echo"
	"github.com/biru-ka2/Attendify-sub000/core"
)

func (cli *commandLine) token(subject string, roles []string) error {
	claims := echoapi.NewClaims(cli.conf, core.Actor{ID: core.CleanString(subject)}, roles...)
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}

package main

import (
	"errors"
	"io"

	"github.com/chazu/jbridge/examples/auth"
	"github.com/chazu/jbridge/jvm"
	"github.com/chazu/jbridge/manifest"
	"github.com/chazu/jbridge/simvm"
)

// demoDirectory is the credential store of the demo runtime.
var demoDirectory = auth.Directory{
	Tokens: map[string]auth.Principal{
		"Some signature": {AccountID: "acme", User: "alice"},
	},
	Grants: map[string][]string{
		"alice": {"delete:my-resource"},
	},
}

// newDemoVM starts an in-process runtime holding the auth classes.
func newDemoVM(m *manifest.Manifest) (*jvm.VM, *simvm.Runtime, error) {
	rt := simvm.New(m.SimOptions())
	if err := auth.Define(rt, demoDirectory); err != nil {
		return nil, nil, err
	}
	return jvm.NewVM(rt, m.JVMOptions()), rt, nil
}

// runDemo authenticates a request and authorizes a delete, reporting each
// outcome the way a service would.
func runDemo(m *manifest.Manifest, out io.Writer) error {
	vm, _, err := newDemoVM(m)
	if err != nil {
		return err
	}
	defer vm.Close()

	svc, err := auth.New(vm)
	if err != nil {
		return err
	}
	defer svc.Close()

	request := &auth.HttpRequest{
		Verb:     "POST",
		Path:     "/",
		BodyHash: []byte{1, 2, 3},
		Headers:  map[string][]string{"Authentication": {"Some signature"}},
	}
	authenticated, err := svc.Authenticate(request)
	var authnErr *auth.AuthenticateError
	if errors.As(err, &authnErr) {
		printf(out, "couldn't authenticate: %v\n", authnErr)
		return nil
	}
	if err != nil {
		return err
	}
	defer authenticated.Release()
	printf(out, "User `%s` in `%s` authenticated\n", authenticated.User, authenticated.AccountID)

	err = svc.Authorize(authenticated, &auth.AuthorizeRequest{Resource: "my-resource", Action: "delete"})
	var authzErr *auth.AuthorizeError
	if errors.As(err, &authzErr) {
		printf(out, "User `%s` access denied: %v\n", authenticated.User, authzErr)
		return nil
	}
	if err != nil {
		return err
	}
	printf(out, "User allowed to delete my-resource\n")
	return nil
}

package service

import "errors"

// ErrUnableToLogin is returned by Login for both an unknown email and a
// wrong password. The two cases are intentionally indistinguishable to the
// caller so that login failures cannot be used to enumerate accounts.
var ErrUnableToLogin = errors.New("Unable to login")

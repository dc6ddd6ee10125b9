package analytics

import (
	"github.com/samber/mo"
	"github.com/sangeet-cli/sangeet/constant"
	"github.com/zalando/go-keyring"
)

const keyringUser = "identity-token"

// SetIdentity persists the listener identity token to the system keyring.
func SetIdentity(token string) error {
	return keyring.Set(constant.Sangeet, keyringUser, token)
}

// DeleteIdentity removes the listener identity token from the system keyring.
func DeleteIdentity() error {
	return keyring.Delete(constant.Sangeet, keyringUser)
}

// identity resolves the listener identity token. It is read on every emission
// rather than cached, so revoking the token from the keyring takes effect on
// the next event.
func identity() mo.Option[string] {
	token, err := keyring.Get(constant.Sangeet, keyringUser)
	if err != nil || token == "" {
		return mo.None[string]()
	}
	return mo.Some(token)
}

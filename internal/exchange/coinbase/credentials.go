package coinbase

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cbgate/cbgate/internal/pkg/apperrors"
)

// DefaultCredentialsEnv is the environment variable checked when none
// is configured.
const DefaultCredentialsEnv = "COINBASE_CREDENTIALS"

// Credentials holds the Coinbase CDP API identity. Immutable after load.
//
// APIKey has the form organizations/{org_id}/apiKeys/{key_id} and doubles
// as the JWT subject and key id. PrivateKey is an EC key in PEM form.
type Credentials struct {
	Name       string
	APIKey     string
	PrivateKey string
	// Extra keeps unrecognized credential fields for forward compatibility
	Extra map[string]any
}

// LoadCredentials reads a JSON credential blob from the named environment
// variable. The private key may carry literal \n escapes from transiting a
// JSON string inside an env value; those are normalized to real newlines.
func LoadCredentials(envVar string) (*Credentials, error) {
	if envVar == "" {
		envVar = DefaultCredentialsEnv
	}
	raw := os.Getenv(envVar)
	if raw == "" {
		return nil, apperrors.NewConfig(fmt.Sprintf("environment variable %q is not set", envVar), nil)
	}
	creds, err := ParseCredentials([]byte(raw))
	if err != nil {
		return nil, apperrors.NewConfig(fmt.Sprintf("invalid credentials in %q", envVar), err)
	}
	return creds, nil
}

// ParseCredentials decodes and validates a raw JSON credential object.
func ParseCredentials(raw []byte) (*Credentials, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.NewConfig("credentials are not valid JSON", err)
	}

	var missing []string
	for _, key := range []string{"name", "api_key", "private_key"} {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewConfig("missing required credential fields: "+strings.Join(missing, ", "), nil)
	}

	creds := &Credentials{
		Name:       asString(fields["name"]),
		APIKey:     asString(fields["api_key"]),
		PrivateKey: strings.ReplaceAll(asString(fields["private_key"]), `\n`, "\n"),
		Extra:      make(map[string]any),
	}
	for k, v := range fields {
		switch k {
		case "name", "api_key", "private_key":
		default:
			creds.Extra[k] = v
		}
	}
	return creds, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

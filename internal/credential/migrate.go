package credential

import (
	"context"
	"os"
)

// envBinding maps one or a pair of environment variables to a stable
// credential name and type, per the fixed table in spec.md §6.
type envBinding struct {
	name     string
	typ      Type
	primary  string
	secret   string // paired secret env var, e.g. AWS_SECRET_ACCESS_KEY
	region   string // paired region env var, first non-empty wins
	regionAlt string
}

// envTable is the fixed environment-variable-to-credential-type table that
// migrateFromEnv walks, in the order spec.md §6 lists them.
var envTable = []envBinding{
	{name: "github-default", typ: TypeGitHubToken, primary: "GITHUB_TOKEN"},
	{name: "default", typ: TypeAnthropicKey, primary: "ANTHROPIC_API_KEY"},
	{name: "default", typ: TypeOpenAIKey, primary: "OPENAI_API_KEY"},
	{name: "default", typ: TypeOpenRouterKey, primary: "OPENROUTER_API_KEY"},
	{name: "default", typ: TypeCloudflare, primary: "CLOUDFLARE_API_TOKEN", secret: "CF_API_TOKEN"},
	{name: "default", typ: TypeAWS, primary: "AWS_ACCESS_KEY_ID", secret: "AWS_SECRET_ACCESS_KEY", region: "AWS_REGION", regionAlt: "AWS_DEFAULT_REGION"},
	{name: "default", typ: TypeDigitalOcean, primary: "DIGITALOCEAN_TOKEN", secret: "DO_TOKEN"},
	{name: "default", typ: TypeSpaces, primary: "SPACES_ACCESS_KEY_ID", secret: "SPACES_SECRET_ACCESS_KEY", region: "SPACES_REGION"},
	{name: "default", typ: TypeNPM, primary: "NPM_TOKEN", secret: "NPM_AUTH_TOKEN"},
}

// MigrateFromEnv walks the fixed environment-variable table in spec.md §6,
// storing one credential per binding whose primary variable (or, for paired
// bindings like Cloudflare and DigitalOcean, whose alternate) is set.
// Already-present records and empty variables are skipped. It returns the
// IDs of any newly-created credentials.
func (s *Store) MigrateFromEnv(ctx context.Context) ([]string, error) {
	var created []string

	for _, b := range envTable {
		id := string(b.typ) + ":" + b.name
		if _, exists := s.sidecarHas(id); exists {
			continue
		}

		value := os.Getenv(b.primary)
		if value == "" && b.secret != "" {
			// Cloudflare/DigitalOcean/NPM list an alternate primary var
			// under the same slot (CF_API_TOKEN, DO_TOKEN, NPM_AUTH_TOKEN);
			// AWS/Spaces instead use b.secret as a true paired secret.
			if b.typ == TypeCloudflare || b.typ == TypeDigitalOcean || b.typ == TypeNPM {
				value = os.Getenv(b.secret)
			}
		}
		if value == "" {
			continue
		}

		cred := Credential{
			Metadata: Metadata{
				ID:   id,
				Type: b.typ,
				Name: b.name,
			},
			Value: value,
		}

		if b.typ == TypeAWS || b.typ == TypeSpaces {
			secret := os.Getenv(b.secret)
			if secret == "" {
				continue // paired secret missing, skip an incomplete pair
			}
			region := firstNonEmpty(os.Getenv(b.region), os.Getenv(b.regionAlt))
			cred.Region = region
			cred.Value = value + ":" + secret
		}

		if err := s.Set(ctx, cred); err != nil {
			return created, err
		}
		created = append(created, id)
	}

	return created, nil
}

func (s *Store) sidecarHas(id string) (Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidecar.get(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

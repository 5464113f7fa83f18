package config

import (
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/envelope/pkg/errors"
)

// GenerateConfigContent renders the current merged settings as a TOML
// file with every value commented out, ready to be dropped into
// ~/.config/envelope/envelope.toml and edited.
func GenerateConfigContent(cfg *Settings) (string, error) {
	data, err := gotoml.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return commentOutConfigValues(string(data)), nil
}

// commentOutConfigValues comments out every assignment line, keeping
// blank lines, existing comments, and section headers as-is.
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}
		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}

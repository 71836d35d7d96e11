package llm

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// apiKeyEnvVars lists the environment variables checked, in order, when
// resolving an API key for an OpenAI-compatible endpoint.
var apiKeyEnvVars = []string{
	"QUERYSYNTH_API_KEY",
	"OPENAI_API_KEY",
}

// GetAPIKey resolves the API key from the environment, prompting on the
// terminal as a last resort. Returns an empty key without error when
// interactive is false and no environment variable is set, since some
// endpoints (local proxies) require no key at all.
func GetAPIKey(interactive bool) (string, error) {
	for _, envVar := range apiKeyEnvVars {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, nil
		}
	}
	if !interactive {
		return "", nil
	}
	return promptForAPIKey()
}

// promptForAPIKey asks the user for an API key with hidden input.
func promptForAPIKey() (string, error) {
	fmt.Print("Please enter your API key: ")

	byteKey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fall back to regular input if term doesn't work
		fmt.Println()
		reader := bufio.NewReader(os.Stdin)
		key, rerr := reader.ReadString('\n')
		if rerr != nil {
			return "", fmt.Errorf("failed to read API key: %w", rerr)
		}
		byteKey = []byte(strings.TrimSpace(key))
	} else {
		fmt.Println()
	}

	apiKey := strings.TrimSpace(string(byteKey))
	if apiKey == "" {
		return "", fmt.Errorf("no API key provided")
	}
	return apiKey, nil
}

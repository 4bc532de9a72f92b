package utils

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// BuildVerificationURL returns the public verification link for an agreement hash. The query parameter names
// and their order are part of the public contract of the verify endpoint.
func BuildVerificationURL(agreementID, hash, baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/verify?id=%s&hash=%s", base, url.QueryEscape(agreementID), url.QueryEscape(hash))
}

// GetVerifyBaseURL returns the base URL that verification links are built on.
func GetVerifyBaseURL(serverPort int) (string, error) {
	// VERIFY_BASE_URL is used verbatim, it already carries the API prefix
	if verifyBase := os.Getenv("VERIFY_BASE_URL"); verifyBase != "" {
		if _, err := url.Parse(verifyBase); err != nil {
			return "", fmt.Errorf("invalid VERIFY_BASE_URL env var: %w", err)
		}
		return strings.TrimSuffix(verifyBase, "/"), nil
	}

	// Override baseUrl if BASE_URL env var is set
	if os.Getenv("BASE_URL") != "" {
		baseUrl := os.Getenv("BASE_URL")
		parsedUrl, err := url.Parse(baseUrl)
		if err != nil {
			return "", fmt.Errorf("invalid BASE_URL env var: %w", err)
		}
		parsedUrl.Path = "/api/v1"
		return parsedUrl.String(), nil
	}

	return fmt.Sprintf("http://localhost:%d/api/v1", serverPort), nil
}

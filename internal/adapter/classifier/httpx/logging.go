package httpx

import "regexp"

var urlSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`key=([^&"\s]+)`),
	regexp.MustCompile(`apiKey=([^&"\s]+)`),
	regexp.MustCompile(`api_key=([^&"\s]+)`),
	regexp.MustCompile(`token=([^&"\s]+)`),
}

var urlSecretNames = []string{"key", "apiKey", "api_key", "token"}

// RedactURLSecrets redacts API keys and other secrets from URLs in error
// messages. Prevents keys passed as query parameters (the Gemini ?key=
// convention) from leaking into logs.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	result := text
	for i, re := range urlSecretPatterns {
		result = re.ReplaceAllString(result, urlSecretNames[i]+"=[REDACTED]")
	}
	return result
}

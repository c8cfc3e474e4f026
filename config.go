package clusterlens

// Config holds all environment variables
var Config struct {
	DatabasePath string
	OpenAIAPIKey string
	OpenAIModel  string
}

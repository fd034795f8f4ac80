package translate

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const myMemoryBaseURL = "https://api.mymemory.translated.net"

// MyMemory uses the public MyMemory REST API. An email raises the daily
// quota but is optional.
type MyMemory struct {
	client *resty.Client
	email  string
}

func NewMyMemory(baseURL, email string) *MyMemory {
	if baseURL == "" {
		baseURL = myMemoryBaseURL
	}
	return &MyMemory{client: resty.New().SetBaseURL(baseURL), email: email}
}

func (m *MyMemory) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  interface{} `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

func (m *MyMemory) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	params := map[string]string{
		"q":        text,
		"langpair": sourceLang + "|en",
	}
	if m.email != "" {
		params["de"] = m.email
	}

	var out myMemoryResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		SetHeader("Accept", "application/json").
		Get("/get")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("mymemory http %d", resp.StatusCode())
	}
	// responseStatus arrives as a number or a numeric string
	if fmt.Sprint(out.ResponseStatus) != "200" {
		return "", fmt.Errorf("mymemory status %v: %s", out.ResponseStatus, out.ResponseDetails)
	}
	return html.UnescapeString(out.ResponseData.TranslatedText), nil
}

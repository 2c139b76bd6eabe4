package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/structures"
	"strings"

	json "github.com/goccy/go-json"
)

// uniqueID asks Appwrite to generate the document id.
const uniqueID = "unique()"

type appwriteQuery struct {
	Method string `json:"method"`
	Values []any  `json:"values"`
}

type appwriteDocumentList struct {
	Total     int               `json:"total"`
	Documents []models.Document `json:"documents"`
}

type appwriteWrite struct {
	DocumentID string          `json:"documentId,omitempty"`
	Data       models.Document `json:"data"`
}

type appwriteError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// AppwriteStore talks to the Appwrite databases REST API.
type AppwriteStore struct {
	client     *http.Client
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	logger     providers.Logger
}

func NewAppwriteStore(conf *structures.Config, logger providers.Logger) *AppwriteStore {
	return &AppwriteStore{
		client:     &http.Client{Timeout: conf.Store.Timeout},
		endpoint:   strings.TrimRight(conf.Store.Endpoint, "/"),
		projectID:  conf.Store.ProjectID,
		apiKey:     conf.Store.APIKey,
		databaseID: conf.Store.DatabaseID,
		logger:     logger,
	}
}

func (s *AppwriteStore) List(ctx context.Context, collectionID string, opts ListOptions) ([]models.Document, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		if err := addQuery(query, "limit", opts.Limit); err != nil {
			return nil, err
		}
	}
	if opts.Offset > 0 {
		if err := addQuery(query, "offset", opts.Offset); err != nil {
			return nil, err
		}
	}

	var list appwriteDocumentList
	if err := s.do(ctx, http.MethodGet, s.documentsPath(collectionID), query, nil, &list); err != nil {
		return nil, err
	}
	if list.Documents == nil {
		list.Documents = []models.Document{}
	}
	return list.Documents, nil
}

func (s *AppwriteStore) Get(ctx context.Context, collectionID, documentID string) (models.Document, error) {
	var doc models.Document
	if err := s.do(ctx, http.MethodGet, s.documentPath(collectionID, documentID), nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *AppwriteStore) Create(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	if documentID == "" {
		documentID = uniqueID
	}
	body := appwriteWrite{DocumentID: documentID, Data: fields.Clean()}

	var doc models.Document
	if err := s.do(ctx, http.MethodPost, s.documentsPath(collectionID), nil, body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *AppwriteStore) Update(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	body := appwriteWrite{Data: fields.Clean()}

	var doc models.Document
	if err := s.do(ctx, http.MethodPatch, s.documentPath(collectionID, documentID), nil, body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *AppwriteStore) Delete(ctx context.Context, collectionID, documentID string) error {
	return s.do(ctx, http.MethodDelete, s.documentPath(collectionID, documentID), nil, nil, nil)
}

func (s *AppwriteStore) documentsPath(collectionID string) string {
	return "/databases/" + url.PathEscape(s.databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}

func (s *AppwriteStore) documentPath(collectionID, documentID string) string {
	return s.documentsPath(collectionID) + "/" + url.PathEscape(documentID)
}

func addQuery(query url.Values, method string, value int) error {
	q, err := json.Marshal(appwriteQuery{Method: method, Values: []any{value}})
	if err != nil {
		return err
	}
	query.Add("queries[]", string(q))
	return nil
}

func (s *AppwriteStore) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := s.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Appwrite-Project", s.projectID)
	if s.apiKey != "" {
		req.Header.Set("X-Appwrite-Key", s.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return s.responseError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (s *AppwriteStore) responseError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr appwriteError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, apiErr.Message)
	}

	s.logger.Debugf(providers.TypeApp, "appwrite %s %s -> %d: %s", method, path, resp.StatusCode, apiErr.Message)
	return &ResponseError{Status: resp.StatusCode, Type: apiErr.Type, Message: apiErr.Message}
}

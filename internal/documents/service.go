package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const pinataPinURL = "https://api.pinata.cloud/pinning/pinFileToIPFS"
const defaultGateway = "https://gateway.pinata.cloud/ipfs/"

// Pinner pins a document to IPFS and returns its ipfs:// URI.
type Pinner interface {
	Pin(ctx context.Context, filename string, content []byte) (string, error)
}

// PinataClient is a Pinner backed by the Pinata HTTP API.
type PinataClient struct {
	APIKey    string
	APISecret string
	PinURL    string
	Client    *http.Client
}

type pinataPinResponse struct {
	IpfsHash string `json:"IpfsHash"`
	Error    string `json:"error"`
}

func (p *PinataClient) Pin(ctx context.Context, filename string, content []byte) (string, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 30 * time.Second}
	}
	pinURL := p.PinURL
	if pinURL == "" {
		pinURL = pinataPinURL
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(content); err != nil {
		return "", err
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"name": filename,
		"keyvalues": map[string]interface{}{
			"app":       "SoulCertify",
			"type":      "certificate",
			"timestamp": time.Now().UnixMilli(),
		},
	})
	_ = w.WriteField("pinataMetadata", string(meta))
	opts, _ := json.Marshal(map[string]interface{}{
		"cidVersion":        1,
		"wrapWithDirectory": false,
	})
	_ = w.WriteField("pinataOptions", string(opts))
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pinURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("pinata_api_key", p.APIKey)
	req.Header.Set("pinata_secret_api_key", p.APISecret)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed pinataPinResponse
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != "" {
			return "", fmt.Errorf("pinata: %s", parsed.Error)
		}
		return "", fmt.Errorf("pinata: pin failed with status %d", resp.StatusCode)
	}
	if parsed.IpfsHash == "" {
		return "", fmt.Errorf("pinata: response missing IpfsHash")
	}
	return "ipfs://" + parsed.IpfsHash, nil
}

// Service stores supporting documents and hands back the documentReference
// URI. With no Pinner configured it falls back to a local uploads directory
// and a mock ipfs URI so the flow keeps working in development.
type Service struct {
	Pinner     Pinner
	UploadsDir string
	GatewayURL string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Store persists the document and returns its URI.
func (s *Service) Store(ctx context.Context, filename string, content []byte) (string, error) {
	if s.Pinner != nil {
		return s.Pinner.Pin(ctx, filename, content)
	}

	if err := os.MkdirAll(s.UploadsDir, 0o755); err != nil {
		return "", err
	}
	safe := unsafeFilenameChars.ReplaceAllString(filename, "_")
	unique := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), safe)
	if err := os.WriteFile(filepath.Join(s.UploadsDir, unique), content, 0o644); err != nil {
		return "", err
	}
	mockCID := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("ipfs://Qm%s/%s", mockCID, unique), nil
}

// Gateway maps an ipfs:// URI to an HTTP gateway URL; other URIs pass through.
func (s *Service) Gateway(uri string) string {
	if !strings.HasPrefix(uri, "ipfs://") {
		return uri
	}
	gw := s.GatewayURL
	if gw == "" {
		gw = defaultGateway
	}
	if !strings.HasSuffix(gw, "/") {
		gw += "/"
	}
	return gw + strings.TrimPrefix(uri, "ipfs://")
}

package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// SMSConfig holds SMS gateway credentials.
type SMSConfig struct {
	BaseURL  string
	Username string
	Password string
	Enabled  bool
}

// SMSService dispatches text messages through the SMS gateway. The gateway
// authenticates with a short-lived bearer token which is cached and refreshed
// on expiry.
type SMSService struct {
	cfg         SMSConfig
	client      *http.Client
	tokenMu     sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewSMSService constructs an SMSService.
func NewSMSService(cfg SMSConfig) *SMSService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SMSService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type smsAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (s *SMSService) getToken(force bool) (string, error) {
	if !s.cfg.Enabled {
		return "", errors.New("sms gateway is disabled")
	}

	if !force {
		s.tokenMu.RLock()
		if s.token != "" && time.Now().Before(s.tokenExpiry) {
			t := s.token
			s.tokenMu.RUnlock()
			return t, nil
		}
		s.tokenMu.RUnlock()
	}

	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	// Double-check after acquiring write lock.
	if !force && s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	})

	req, err := http.NewRequest(http.MethodPost, s.cfg.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("sms auth request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms auth request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sms auth failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var authResp smsAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("sms auth unmarshal: %w", err)
	}

	if authResp.Token == "" {
		return "", errors.New("sms auth: empty token")
	}

	s.token = authResp.Token
	if authResp.ExpiresIn > 0 {
		s.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		s.tokenExpiry = time.Now().Add(55 * time.Minute)
	}

	return s.token, nil
}

func (s *SMSService) post(path string, body any) (int, []byte, error) {
	token, err := s.getToken(false)
	if err != nil {
		return 0, nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("sms request marshal: %w", err)
	}

	url := s.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")

	doOnce := func(token string) (int, []byte, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return 0, nil, fmt.Errorf("sms request build: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := s.client.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("sms request: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, respBody, nil
	}

	status, respBody, err := doOnce(token)
	if err != nil {
		return 0, nil, err
	}

	// Retry once on 401.
	if status == http.StatusUnauthorized {
		token, err = s.getToken(true)
		if err != nil {
			return 0, nil, err
		}
		return doOnce(token)
	}

	return status, respBody, nil
}

// Send dispatches a text message to the given phone number. The caller must
// treat a non-nil error as "not sent": nothing downstream (OTP rows included)
// should be persisted for an undelivered message.
func (s *SMSService) Send(phone, message string) error {
	status, body, err := s.post("sms/send", map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("sms send: status %d, body: %s", status, string(body))
	}
	return nil
}

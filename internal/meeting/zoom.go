package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/config"
)

const zoomOAuthURL = "https://zoom.us/oauth/token"

// ZoomProvisioner creates meetings through the Zoom REST API using
// server-to-server OAuth credentials.
type ZoomProvisioner struct {
	accountID    string
	clientID     string
	clientSecret string
	baseURL      string
	oauthURL     string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewZoomProvisioner(cfg *config.Config) *ZoomProvisioner {
	return &ZoomProvisioner{
		accountID:    cfg.ZoomAccountID,
		clientID:     cfg.ZoomClientID,
		clientSecret: cfg.ZoomClientSecret,
		baseURL:      cfg.ZoomBaseURL,
		oauthURL:     zoomOAuthURL,
		client: &http.Client{
			Timeout: config.ProvisionTimeout,
		},
	}
}

type zoomTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type zoomMeetingRequest struct {
	Topic    string              `json:"topic"`
	Type     int                 `json:"type"`
	Duration int                 `json:"duration"`
	Settings zoomMeetingSettings `json:"settings"`
}

type zoomMeetingSettings struct {
	WaitingRoom    bool   `json:"waiting_room"`
	JoinBeforeHost bool   `json:"join_before_host"`
	Audio          string `json:"audio"`
}

type zoomMeetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	Password string `json:"password"`
}

func (p *ZoomProvisioner) Provision(ctx context.Context, topic string) (*Meeting, error) {
	token, err := p.accessTokenFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("zoom oauth: %w", err)
	}

	body, err := json.Marshal(zoomMeetingRequest{
		Topic:    topic,
		Type:     1, // instant meeting
		Duration: config.MeetingDurationMinutes,
		Settings: zoomMeetingSettings{
			WaitingRoom:    false,
			JoinBeforeHost: true,
			Audio:          "both",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal meeting request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("zoom meeting creation error")
		return nil, fmt.Errorf("create meeting request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("zoom meeting creation failed")
		return nil, fmt.Errorf("create meeting failed with status %d", resp.StatusCode)
	}

	var result zoomMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode meeting response: %w", err)
	}

	log.Info().
		Int64("meetingId", result.ID).
		Dur("elapsed", elapsed).
		Msg("zoom meeting created")

	return &Meeting{
		ID:       fmt.Sprintf("%d", result.ID),
		JoinURL:  result.JoinURL,
		Password: result.Password,
	}, nil
}

// accessTokenFor returns a cached server-to-server OAuth token, refreshing it
// when fewer than 60 seconds of validity remain.
func (p *ZoomProvisioner) accessTokenFor(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Add(time.Minute).Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", p.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.oauthURL+"?"+form.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tokenResp zoomTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	p.accessToken = tokenResp.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return p.accessToken, nil
}

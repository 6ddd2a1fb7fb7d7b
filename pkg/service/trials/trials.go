// Package trials queries the ClinicalTrials.gov v2 studies API.
package trials

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

const (
	DefaultBaseURL   = "https://clinicaltrials.gov/api/v2"
	DefaultUserAgent = "oncoguard/1.0"
	DefaultTimeout   = 30 * time.Second

	// MaxPageSize is the largest page requested from the registry
	MaxPageSize = 25

	maxConditions    = 4
	maxInterventions = 5
	maxResponseBytes = 8 << 20
)

var ErrRegistryRequest = goerr.New("trials registry request failed")

// Searcher finds studies by condition
type Searcher interface {
	Search(ctx context.Context, condition string, pageSize int) ([]*model.Trial, error)
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Searcher = &Client{}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns studies whose condition matches. pageSize is clamped to
// 1..MaxPageSize. Studies without an NCT id or title are skipped.
func (c *Client) Search(ctx context.Context, condition string, pageSize int) ([]*model.Trial, error) {
	pageSize = max(1, min(pageSize, MaxPageSize))

	params := url.Values{}
	params.Set("query.cond", condition)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("format", "json")
	apiURL := c.baseURL + "/studies?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", apiURL))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(ErrRegistryRequest, "failed to call trials registry",
			goerr.V("url", apiURL), goerr.V("error", err.Error()))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(ErrRegistryRequest, "trials registry returned error",
			goerr.V("status", resp.StatusCode), goerr.V("url", apiURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerr.Wrap(ErrRegistryRequest, "failed to read trials registry response", goerr.V("error", err.Error()))
	}

	var payload studiesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, goerr.Wrap(ErrRegistryRequest, "failed to parse trials registry response", goerr.V("error", err.Error()))
	}
	return payload.trials(), nil
}

type studiesResponse struct {
	Studies []study `json:"studies"`
}

type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus        string `json:"overallStatus"`
			LastUpdateSubmitDate string `json:"lastUpdateSubmitDate"`
		} `json:"statusModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name             string `json:"name"`
				InterventionName string `json:"interventionName"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
	} `json:"protocolSection"`
}

func (r *studiesResponse) trials() []*model.Trial {
	result := make([]*model.Trial, 0, len(r.Studies))
	for _, s := range r.Studies {
		p := s.ProtocolSection
		trial := &model.Trial{
			NCTID:         strings.TrimSpace(p.IdentificationModule.NCTID),
			BriefTitle:    strings.TrimSpace(p.IdentificationModule.BriefTitle),
			OverallStatus: p.StatusModule.OverallStatus,
			Conditions:    []string{},
			Interventions: []string{},
		}
		if trial.NCTID == "" || trial.BriefTitle == "" {
			continue
		}
		if trial.OverallStatus == "" {
			trial.OverallStatus = "UNKNOWN"
		}
		if d := p.StatusModule.LastUpdateSubmitDate; d != "" {
			trial.LastUpdateSubmitDate = &d
		}
		for _, cond := range p.ConditionsModule.Conditions {
			if len(trial.Conditions) == maxConditions {
				break
			}
			trial.Conditions = append(trial.Conditions, cond)
		}
		for _, iv := range p.ArmsInterventionsModule.Interventions {
			if len(trial.Interventions) == maxInterventions {
				break
			}
			name := strings.TrimSpace(iv.Name)
			if name == "" {
				name = strings.TrimSpace(iv.InterventionName)
			}
			if name != "" {
				trial.Interventions = append(trial.Interventions, name)
			}
		}
		result = append(result, trial)
	}
	return result
}

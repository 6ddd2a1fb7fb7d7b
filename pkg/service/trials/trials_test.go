package trials_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/service/trials"
)

const studiesJSON = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT00000001", "briefTitle": "FLOT in gastric cancer"},
        "statusModule": {"overallStatus": "RECRUITING", "lastUpdateSubmitDate": "2024-10-01"},
        "conditionsModule": {"conditions": ["Gastric Cancer", "GEJ", "Adenocarcinoma", "Stage III", "Extra"]},
        "armsInterventionsModule": {"interventions": [
          {"name": "Docetaxel"}, {"name": " "}, {"interventionName": "Oxaliplatin"},
          {"name": "5-FU"}, {"name": "Leucovorin"}, {"name": "Surgery"}, {"name": "Placebo"}
        ]}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT00000002", "briefTitle": "Observational registry"},
        "statusModule": {}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "", "briefTitle": "No id"}
      }
    }
  ]
}`

func TestClient_Search(t *testing.T) {
	var gotQuery, gotPageSize, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.URL.Path).Equal("/studies")
		gotQuery = r.URL.Query().Get("query.cond")
		gotPageSize = r.URL.Query().Get("pageSize")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(studiesJSON))
	}))
	defer srv.Close()

	client := trials.New(trials.WithBaseURL(srv.URL+"/"), trials.WithUserAgent("test-agent"))
	items, err := client.Search(context.Background(), "gastric cancer", 100)
	gt.NoError(t, err).Required()

	gt.V(t, gotQuery).Equal("gastric cancer")
	gt.V(t, gotPageSize).Equal("25")
	gt.V(t, gotAgent).Equal("test-agent")

	gt.A(t, items).Length(2).Required()
	gt.V(t, items[0].NCTID).Equal("NCT00000001")
	gt.V(t, *items[0].LastUpdateSubmitDate).Equal("2024-10-01")
	gt.A(t, items[0].Conditions).Length(4)
	gt.A(t, items[0].Interventions).Equal([]string{"Docetaxel", "Oxaliplatin", "5-FU", "Leucovorin", "Surgery"})
	gt.B(t, items[0].Recruiting()).True()

	gt.V(t, items[1].OverallStatus).Equal("UNKNOWN")
	gt.V(t, items[1].LastUpdateSubmitDate).Nil()
	gt.A(t, items[1].Conditions).Length(0)
	gt.B(t, items[1].Recruiting()).False()
}

func TestClient_SearchPageSizeFloor(t *testing.T) {
	var gotPageSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("pageSize")
		_, _ = w.Write([]byte(`{"studies": []}`))
	}))
	defer srv.Close()

	items, err := trials.New(trials.WithBaseURL(srv.URL)).Search(context.Background(), "lymphoma", 0)
	gt.NoError(t, err).Required()
	gt.A(t, items).Length(0)
	gt.V(t, gotPageSize).Equal("1")
}

func TestClient_SearchRegistryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := trials.New(trials.WithBaseURL(srv.URL)).Search(context.Background(), "melanoma", 20)
	gt.Error(t, err).Is(trials.ErrRegistryRequest)
}

func TestClient_SearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := trials.New(trials.WithBaseURL(srv.URL)).Search(context.Background(), "melanoma", 20)
	gt.Error(t, err).Is(trials.ErrRegistryRequest)
}

package fhir

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(DefaultClientConfig(srv.URL), nil, nil), srv
}

func TestReadPatient(t *testing.T) {
	var gotPath, gotAccept string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"resourceType":"Patient","id":"p1","gender":"female"}`))
	})
	defer srv.Close()

	patient, err := client.ReadPatient(context.Background(), "p1")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if patient.ID != "p1" || patient.Gender != "female" {
		t.Errorf("patient = %+v", patient)
	}
	if gotPath != "/Patient/p1" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAccept != "application/fhir+json" {
		t.Errorf("accept = %q", gotAccept)
	}
}

func TestReadPatientNotFound(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"resourceType":"OperationOutcome"}`))
	})
	defer srv.Close()

	_, err := client.ReadPatient(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadPatientBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.BearerToken = "sekrit"
	client := NewClient(cfg, nil, nil)

	if _, err := client.ReadPatient(context.Background(), "p1"); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestSearchEncountersQueryAndInclude(t *testing.T) {
	var gotQuery url.Values
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"resourceType": "Bundle",
			"type": "searchset",
			"entry": [
				{"resource": {"resourceType": "Encounter", "id": "e1"}, "search": {"mode": "match"}},
				{"resource": {"resourceType": "Condition", "id": "c1"}, "search": {"mode": "include"}},
				{"resource": {"resourceType": "Observation", "id": "junk"}}
			]
		}`))
	})
	defer srv.Close()

	dr := DateRange{Start: "2026-01-01", End: "2026-12-31"}
	encounters, conditions, err := client.SearchEncounters(context.Background(), "p1", dr)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if gotQuery.Get("subject") != "Patient/p1" {
		t.Errorf("subject = %q", gotQuery.Get("subject"))
	}
	dates := gotQuery["date"]
	if len(dates) != 2 || dates[0] != "ge2026-01-01" || dates[1] != "le2026-12-31" {
		t.Errorf("date params = %v", dates)
	}
	if gotQuery.Get("_sort") != "date" {
		t.Errorf("_sort = %q", gotQuery.Get("_sort"))
	}
	if gotQuery.Get("_include") != "Encounter:diagnosis" {
		t.Errorf("_include = %q", gotQuery.Get("_include"))
	}

	if len(encounters) != 1 || encounters[0].ID != "e1" {
		t.Errorf("encounters = %+v", encounters)
	}
	if len(conditions) != 1 || conditions[0].ID != "c1" {
		t.Errorf("conditions = %+v", conditions)
	}
}

func TestSearchProceduresCategoryFilter(t *testing.T) {
	var gotQuery url.Values
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"resourceType":"Bundle","entry":[{"resource":{"resourceType":"Procedure","id":"pr1"}}]}`))
	})
	defer srv.Close()

	dr := DateRange{Start: "2026-01-01", End: "2026-12-31"}
	procedures, err := client.SearchProcedures(context.Background(), "p1", "409063005", dr)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if gotQuery.Get("category") != r4.SystemSNOMED+"|409063005" {
		t.Errorf("category = %q", gotQuery.Get("category"))
	}
	if len(procedures) != 1 || procedures[0].ID != "pr1" {
		t.Errorf("procedures = %+v", procedures)
	}
}

func TestSearchCoveragesNoDateFilter(t *testing.T) {
	var gotQuery url.Values
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"resourceType":"Bundle","entry":[{"resource":{"resourceType":"Coverage","id":"cov1"}}]}`))
	})
	defer srv.Close()

	coverages, err := client.SearchCoverages(context.Background(), "p1")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if gotQuery.Get("beneficiary") != "Patient/p1" {
		t.Errorf("beneficiary = %q", gotQuery.Get("beneficiary"))
	}
	if _, has := gotQuery["date"]; has {
		t.Error("coverage search must not be date-filtered")
	}
	if len(coverages) != 1 || coverages[0].ID != "cov1" {
		t.Errorf("coverages = %+v", coverages)
	}
}

func TestSearchServerError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})
	defer srv.Close()

	_, _, err := client.SearchEncounters(context.Background(), "p1", DateRange{Start: "2026-01-01", End: "2026-12-31"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a 500 must not map to ErrNotFound")
	}
}

package model_test

import (
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestRouteTable_Resolve(t *testing.T) {
	routes := []model.Route{
		{Label: "gpu", Subject: "dispatch.gpu"},
		{Label: "arm64", Subject: "dispatch.arm"},
		{Label: "self-hosted", Subject: "dispatch.default"},
	}
	table := model.NewRouteTable(routes, "dispatch.default")

	tests := []struct {
		name        string
		labels      []string
		wantSubject string
		wantLabel   string
	}{
		{
			name:        "Single matching label",
			labels:      []string{"arm64"},
			wantSubject: "dispatch.arm",
			wantLabel:   "arm64",
		},
		{
			name:        "Table order wins over label order",
			labels:      []string{"arm64", "gpu"},
			wantSubject: "dispatch.gpu",
			wantLabel:   "gpu",
		},
		{
			name:        "No match falls back to default",
			labels:      []string{"windows", "x64"},
			wantSubject: "dispatch.default",
			wantLabel:   "",
		},
		{
			name:        "Empty label set falls back to default",
			labels:      nil,
			wantSubject: "dispatch.default",
			wantLabel:   "",
		},
		{
			name:        "Non-routed labels are ignored",
			labels:      []string{"linux", "self-hosted"},
			wantSubject: "dispatch.default",
			wantLabel:   "self-hosted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, label := table.Resolve(tt.labels)
			gt.Value(t, subject).Equal(tt.wantSubject)
			gt.Value(t, label).Equal(tt.wantLabel)
		})
	}
}

func TestRouteTable_Resolve_Deterministic(t *testing.T) {
	table := model.NewRouteTable([]model.Route{
		{Label: "a", Subject: "dispatch.a"},
		{Label: "b", Subject: "dispatch.b"},
	}, "dispatch.default")

	// Multiple matches always resolve to the same entry
	for i := 0; i < 100; i++ {
		subject, label := table.Resolve([]string{"b", "a"})
		gt.Value(t, subject).Equal("dispatch.a")
		gt.Value(t, label).Equal("a")
	}
}

func TestParseRoutes(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    []model.Route
		wantErr bool
	}{
		{
			name:    "Valid entries keep order",
			entries: []string{"gpu=dispatch.gpu", "arm64=dispatch.arm"},
			want: []model.Route{
				{Label: "gpu", Subject: "dispatch.gpu"},
				{Label: "arm64", Subject: "dispatch.arm"},
			},
		},
		{
			name:    "Empty list is valid",
			entries: nil,
			want:    []model.Route{},
		},
		{
			name:    "Missing separator",
			entries: []string{"gpu"},
			wantErr: true,
		},
		{
			name:    "Empty label",
			entries: []string{"=dispatch.gpu"},
			wantErr: true,
		},
		{
			name:    "Empty subject",
			entries: []string{"gpu="},
			wantErr: true,
		},
		{
			name:    "Subject outside the dispatch stream",
			entries: []string{"gpu=foo"},
			wantErr: true,
		},
		{
			name:    "Bare prefix is not a subject",
			entries: []string{"gpu=dispatch."},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := model.ParseRoutes(tt.entries)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, routes).Equal(tt.want)
		})
	}
}

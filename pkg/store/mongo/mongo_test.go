package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

func TestIDCandidates(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		name string
		id   workflow.ID
		want []any
	}{
		{"String", "start", []any{"start"}},
		{"SmallInt", "42", []any{"42", int32(42), int64(42)}},
		{"LargeInt", "8589934592", []any{"8589934592", int64(8589934592)}},
		{"ObjectID", workflow.ID(oid.Hex()), []any{oid.Hex(), oid}},
		{"HexLookalike", "zzzzzzzzzzzzzzzzzzzzzzzz", []any{"zzzzzzzzzzzzzzzzzzzzzzzz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDCandidates(tt.id)
			if len(got) != len(tt.want) {
				t.Fatalf("IDCandidates(%s) = %v, want %v", tt.id, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDialValidates(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		db   string
	}{
		{"EmptyURI", "", "flows"},
		{"BadScheme", "http://db", "flows"},
		{"EmptyDB", "mongodb://localhost:27017", ""},
		{"BadDB", "mongodb://localhost:27017", "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Dial(context.Background(), tt.uri, tt.db, Options{})
			if !errors.Is(err, errors.ErrCodeMalformedInput) {
				t.Errorf("err = %v, want MALFORMED_INPUT", err)
			}
		})
	}
}

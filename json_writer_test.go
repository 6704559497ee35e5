package cryptotax

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *jsonObjectWriter)
		want  string
	}{
		{"empty object", func(w *jsonObjectWriter) {}, `{}`},
		{"keeps order", func(w *jsonObjectWriter) {
			w.Append("b", 1).Append("a", "x")
		}, `{"b":1,"a":"x"}`},
		{"embed", func(w *jsonObjectWriter) {
			w.Append("a", 1).Embed(json.RawMessage(`{"c":3,"d":4}`)).Append("b", 2)
		}, `{"a":1,"c":3,"d":4,"b":2}`},
		{"embed empty object", func(w *jsonObjectWriter) {
			w.Append("a", 1).EmbedFrom(struct{}{})
		}, `{"a":1}`},
		{"optional", func(w *jsonObjectWriter) {
			w.Optional("a", "").Optional("b", 0).Optional("c", "set")
		}, `{"c":"set"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w jsonObjectWriter
			tt.build(&w)
			got, err := w.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestJsonObjectWriter_Error(t *testing.T) {
	var w jsonObjectWriter
	w.Append("f", func() {}).Append("a", 1)
	if _, err := w.MarshalJSON(); err == nil {
		t.Error("MarshalJSON() expected an error for an unsupported value")
	}
}

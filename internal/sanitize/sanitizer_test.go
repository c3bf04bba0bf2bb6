package sanitize

import (
	"encoding/json"
	"testing"
)

func TestSanitize(t *testing.T) {
	s := NewSanitizer()

	in := map[string]any{
		"title":      `<script>alert("x")</script>`,
		"desc":       "Tom & Jerry's",
		"entity":     "&#39;",
		"date_start": "2024-01-01T08:30",
		"date_end":   "2024-01-02T10:00:00-03:00",
		"id":         json.Number("7"),
		"status":     nil,
	}
	out := s.Sanitize(in)

	cases := map[string]string{
		"title":      "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;",
		"desc":       "Tom &amp; Jerry&#039;s",
		"entity":     "&amp;#39;",
		"date_start": "2024-01-01T08:30",
		"date_end":   "2024-01-02T10:00:00-03:00",
	}
	for key, want := range cases {
		if got := out[key]; got != want {
			t.Errorf("%s: expected %q, got %q", key, want, got)
		}
	}
	if out["id"] != json.Number("7") {
		t.Errorf("id: expected json.Number 7, got %v", out["id"])
	}
	if v, ok := out["status"]; !ok || v != nil {
		t.Errorf("status: expected nil to pass through, got %v", v)
	}
	if in["title"] != `<script>alert("x")</script>` {
		t.Error("input map must not be modified")
	}
}

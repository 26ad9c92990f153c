package imapsource

import (
	"strings"
	"testing"
)

func TestSnippetFromBody(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain text",
			raw:  "Hello,\r\n\r\nYour order has shipped.\r\n",
			want: "Hello, Your order has shipped.",
		},
		{
			name: "multipart leak skips boundaries and part headers",
			raw: "--boundary42\r\n" +
				"Content-Type: text/plain; charset=utf-8\r\n" +
				"Content-Transfer-Encoding: quoted-printable\r\n" +
				"\r\n" +
				"See you at the standup.\r\n" +
				"--boundary42--\r\n",
			want: "See you at the standup.",
		},
		{
			name: "quoted-printable soft break joins words",
			raw:  "The meeting moved to thurs=\r\nday morning.\r\n",
			want: "The meeting moved to thursday morning.",
		},
		{
			name: "html only mail keeps text between tags",
			raw:  "<!DOCTYPE html>\r\n<html><body><p>Flash sale ends tonight</p></body></html>\r\n",
			want: "Flash sale ends tonight",
		},
		{
			name: "empty body",
			raw:  "\r\n\r\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snippetFromBody([]byte(tt.raw)); got != tt.want {
				t.Errorf("snippetFromBody = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippetFromBodyTruncates(t *testing.T) {
	raw := strings.Repeat("lengthy words keep coming ", 20)

	got := snippetFromBody([]byte(raw))

	if !strings.HasSuffix(got, "…") {
		t.Errorf("long body not marked truncated: %q", got)
	}
	if len(got) > 130 {
		t.Errorf("snippet too long: %d bytes", len(got))
	}
}

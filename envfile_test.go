package entrypoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{
			name:    "empty file",
			content: "",
			want:    map[string]string{},
		},
		{
			name:    "indented quoted assignments",
			content: envFileContent(`CONSUL_BIND_INTERFACE="eth0"`, `CONSUL_ENABLE_UI="yes"`),
			want: map[string]string{
				"CONSUL_BIND_INTERFACE": "eth0",
				"CONSUL_ENABLE_UI":      "yes",
			},
		},
		{
			name:    "escaped quotes are unescaped",
			content: envFileContent(`CONSUL_LOCAL_CONFIGURATION="{\"datacenter\": \"london\"}"`),
			want: map[string]string{
				"CONSUL_LOCAL_CONFIGURATION": `{"datacenter": "london"}`,
			},
		},
		{
			name:    "shell escapes in double quotes",
			content: `A="back\\slash \$HOME \` + "`" + `tick\` + "`" + ` keep\n"`,
			want: map[string]string{
				"A": "back\\slash $HOME `tick` keep\\n",
			},
		},
		{
			name:    "value with spaces and commas",
			content: `CONSUL_SERVER_ADDRESSES="server1.example.com,server2.example.com"` + "\n" + `TAGS="a b c"`,
			want: map[string]string{
				"CONSUL_SERVER_ADDRESSES": "server1.example.com,server2.example.com",
				"TAGS":                    "a b c",
			},
		},
		{
			name:    "single quoted and bare values",
			content: "A='it is \"literal\" \\n'\nB=bare\nC=",
			want: map[string]string{
				"A": `it is "literal" \n`,
				"B": "bare",
				"C": "",
			},
		},
		{
			name:    "export prefix comments blank lines and CRLF",
			content: "# comment\r\n\r\nexport A=\"1\"\r\n\t  B=\"2\"\r\n",
			want: map[string]string{
				"A": "1",
				"B": "2",
			},
		},
		{
			name: "malformed lines are dropped",
			content: "not an assignment\n" +
				"1BAD=\"x\"\n" +
				"SPACED = \"x\"\n" +
				"UNTERMINATED=\"abc\n" +
				"TRAILING=\"abc\"def\n" +
				"BARE=two words\n" +
				"GOOD=\"kept\"",
			want: map[string]string{
				"GOOD": "kept",
			},
		},
		{
			name:    "last assignment wins",
			content: "A=\"first\"\nA=\"second\"",
			want:    map[string]string{"A": "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEnvFile([]byte(tt.content)))
		})
	}
}

package compileinfo

import "testing"

func TestTool(t *testing.T) {
	cases := []struct {
		info CompileInfo
		want string
	}{
		{CompileInfo{}, DefaultTool},
		{CompileInfo{Package: "github.com/carbocation/metaprot/cmd/entrezproteins"}, "entrezproteins"},
		{CompileInfo{Package: "github.com/carbocation/metaprot/cmd/entrezproteins", Commit: "0123456789abcdef"}, "entrezproteins-0123456"},
		{CompileInfo{Package: "entrezproteins", Commit: "abc"}, "entrezproteins"},
	}

	for _, c := range cases {
		if got := c.info.Tool(); got != c.want {
			t.Errorf("%+v: expected %s, got %s", c.info, c.want, got)
		}
	}
}

package fixer

import (
	"strings"
	"testing"
)

func TestInsertionPoint(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"empty", "", 0},
		{"code first", "x = 1\n", 0},
		{"after imports", "import os\nimport sys\n\nx = 1\n", 2},
		{"comment header", "# header\n# more\nx = 1\n", 2},
		{"docstring", "\"\"\"Module doc.\"\"\"\nx = 1\n", 1},
		{"multi-line docstring", "\"\"\"Module\n\ndoc.\n\"\"\"\nimport os\n\nx = 1\n", 5},
		{"parenthesised import", "from a import (\n    b,\n    c,\n)\nx = 1\n", 4},
		{"continued import", "from a import b, \\\n    c\nx = 1\n", 2},
		{"shebang and imports", "#!/usr/bin/env python\nimport os\n\n\ndef main():\n    pass\n", 2},
		{"stops at code", "import os\nx = 1\nimport sys\n", 1},
		{"raw bytes docstring", "Rb\"\"\"Module\ndoc.\n\"\"\"\nx = 1\n", 3},
		{"br docstring", "br'''doc'''\nx = 1\n", 1},
		{"single-quoted docstring", "\"Module doc.\"\nimport os\nx = 1\n", 2},
		{"single-quoted with comment", "'doc'  # note\nx = 1\n", 1},
		{"string expression is code", "\"a\".join(parts)\nimport os\n", 0},
		{"from is not a prefix", "from a import b\nx = 1\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := strings.Split(tt.src, "\n")
			if got := InsertionPoint(lines); got != tt.want {
				t.Errorf("InsertionPoint() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInsertImports(t *testing.T) {
	src := "import os\n\ndef main():\n    return helper()\n"
	got := string(InsertImports([]byte(src), []string{"from utils import helper"}))
	want := "import os\nfrom utils import helper\n\ndef main():\n    return helper()\n"
	if got != want {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestInsertImports_PreservesLines(t *testing.T) {
	src := "\"\"\"Doc.\"\"\"\n# comment\nimport os\nVALUE = 1  # trailing\n\n\nclass A:\n    pass\n"
	out := string(InsertImports([]byte(src), []string{"from a import b", "from c import d"}))

	outLines := strings.Split(out, "\n")
	srcLines := strings.Split(src, "\n")
	if len(outLines) != len(srcLines)+2 {
		t.Fatalf("expected %d lines, got %d", len(srcLines)+2, len(outLines))
	}
	if outLines[3] != "from a import b" || outLines[4] != "from c import d" {
		t.Errorf("imports not inserted after header: %q", outLines[3:5])
	}
	rebuilt := append(append([]string{}, outLines[:3]...), outLines[5:]...)
	if strings.Join(rebuilt, "\n") != src {
		t.Error("original lines were modified")
	}
}

func TestInsertImports_EmptyFile(t *testing.T) {
	got := string(InsertImports(nil, []string{"from a import b"}))
	if got != "from a import b\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestInsertImports_CRLF(t *testing.T) {
	src := "import os\r\n\r\nx = helper()\r\n"
	got := string(InsertImports([]byte(src), []string{"from utils import helper"}))
	want := "import os\r\nfrom utils import helper\r\n\r\nx = helper()\r\n"
	if got != want {
		t.Errorf("unexpected output %q", got)
	}
}

func TestInsertImports_NoStatements(t *testing.T) {
	src := []byte("x = 1\n")
	if got := InsertImports(src, nil); string(got) != string(src) {
		t.Errorf("expected unchanged content, got %q", got)
	}
}

func TestInsertImports_ByteOrderMark(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"import first",
			"\ufeffimport os\n\nprint(helper(), os.sep)\n",
			"\ufeffimport os\nfrom a import helper\n\nprint(helper(), os.sep)\n",
		},
		{
			"code first",
			"\ufeffprint(helper())\n",
			"\ufefffrom a import helper\nprint(helper())\n",
		},
		{
			"comment first",
			"\ufeff# -*- coding: utf-8 -*-\nprint(helper())\n",
			"\ufeff# -*- coding: utf-8 -*-\nfrom a import helper\nprint(helper())\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(InsertImports([]byte(tt.src), []string{"from a import helper"}))
			if got != tt.want {
				t.Errorf("unexpected output %q", got)
			}
			if strings.Count(got, "\ufeff") != 1 || !strings.HasPrefix(got, "\ufeff") {
				t.Errorf("byte order mark must stay at byte 0 only: %q", got)
			}
		})
	}
}

package contenttype

import "testing"

func TestFromExtension(t *testing.T) {
	cases := map[string]Class{
		"1501.00963.pdf": PDF,
		"astro-ph0412561.gz": SourceGzip,
		"arXiv_src_1501_001.tar": SourceTar,
		"readme.txt": Unknown,
	}
	for name, want := range cases {
		if got := FromExtension(name); got != want {
			t.Errorf("FromExtension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSniff(t *testing.T) {
	pdf := append([]byte("%PDF-1.4"), make([]byte, 300)...)
	if got := Sniff(pdf); got != PDF {
		t.Errorf("Sniff(pdf) = %q, want pdf", got)
	}
	gz := []byte{0x1f, 0x8b, 0x08, 0x00}
	if got := Sniff(gz); got != SourceGzip {
		t.Errorf("Sniff(gz) = %q, want source_gzip", got)
	}
	tarBuf := make([]byte, 300)
	copy(tarBuf[257:], []byte("ustar"))
	if got := Sniff(tarBuf); got != SourceTar {
		t.Errorf("Sniff(tar) = %q, want source_tar", got)
	}
	if got := Sniff([]byte("nothing recognizable")); got != Unknown {
		t.Errorf("Sniff(unknown) = %q, want unknown", got)
	}
}

func TestMIME(t *testing.T) {
	cases := map[Class]string{
		PDF:        "application/pdf",
		SourceGzip: "application/gzip",
		SourceTar:  "application/x-tar",
		XML:        "application/xml",
		Unknown:    "application/octet-stream",
	}
	for c, want := range cases {
		if got := MIME(c); got != want {
			t.Errorf("MIME(%q) = %q, want %q", c, got, want)
		}
	}
}

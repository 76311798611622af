package mediatypes

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		mime      string
		wantKind  Kind
		supported bool
	}{
		{"image/jpeg", KindImage, true},
		{"image/jpg", KindImage, true},
		{"image/png", KindImage, true},
		{"video/mp4", KindVideo, true},
		{"video/quicktime", KindVideo, true},
		{"video/webm", KindVideo, true},
		{"IMAGE/JPEG", KindImage, true},
		{"video/mp4; codecs=avc1.42E01E", KindVideo, true},
		{" image/png ", KindImage, true},
		{"text/plain", "", false},
		{"image/gif", "", false},
		{"video/x-matroska", "", false},
		{"application/octet-stream", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			kind, ok := KindOf(tt.mime)
			if ok != tt.supported {
				t.Errorf("KindOf(%q) supported = %v, want %v", tt.mime, ok, tt.supported)
			}
			if kind != tt.wantKind {
				t.Errorf("KindOf(%q) = %q, want %q", tt.mime, kind, tt.wantKind)
			}
			if IsSupported(tt.mime) != tt.supported {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.mime, !tt.supported, tt.supported)
			}
		})
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"image/png", ".png"},
		{"video/mp4", ".mp4"},
		{"video/quicktime", ".mov"},
		{"video/webm", ".webm"},
		{"text/plain", ""},
	}

	for _, tt := range tests {
		if got := ExtensionFor(tt.mime); got != tt.want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestIsMP4Family(t *testing.T) {
	if !IsMP4Family("video/mp4") {
		t.Error("video/mp4 should be MP4 family")
	}
	if !IsMP4Family("video/quicktime") {
		t.Error("video/quicktime should be MP4 family")
	}
	if IsMP4Family("video/webm") {
		t.Error("video/webm should not be MP4 family")
	}
	if IsMP4Family("image/jpeg") {
		t.Error("image/jpeg should not be MP4 family")
	}
}

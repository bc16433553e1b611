package variant

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"img", Original, false},
		{"thumb", Thumbnail, false},
		{"preview", Preview, false},
		{"thumbnail", Original, true},
		{"", Original, true},
		{"THUMB", Original, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrBadRequest) {
					t.Errorf("ParseKind(%q) error = %v, want ErrBadRequest", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if got.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.name)
			}
		})
	}
}

func TestKindBounds(t *testing.T) {
	tests := []struct {
		kind   Kind
		w, h   int
		ok     bool
		cacheD string
	}{
		{Original, 0, 0, false, ".img"},
		{Thumbnail, 350, 250, true, ".thumb"},
		{Preview, 1920, 1080, true, ".preview"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			w, h, ok := tt.kind.Bounds()
			if w != tt.w || h != tt.h || ok != tt.ok {
				t.Errorf("Bounds() = (%d, %d, %v), want (%d, %d, %v)", w, h, ok, tt.w, tt.h, tt.ok)
			}
			if got := tt.kind.CacheDirName(); got != tt.cacheD {
				t.Errorf("CacheDirName() = %q, want %q", got, tt.cacheD)
			}
		})
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		name      string
		thumbsDir string
		readOnly  bool
		want      Policy
	}{
		{"normal", "", false, NormalPolicy()},
		{"alternate", "/var/cache/galry", false, AlternateDirectoryPolicy("/var/cache/galry")},
		{"read-only", "", true, ReadOnlyPolicy()},
		{"read-only wins over thumbs dir", "/var/cache/galry", true, ReadOnlyPolicy()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolicyFor(tt.thumbsDir, tt.readOnly); got != tt.want {
				t.Errorf("PolicyFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad request", newError(ErrBadRequest, "x", nil), LabelBadRequest},
		{"not found", newError(ErrNotFound, "x", errors.New("stat")), LabelNotFound},
		{"image", newError(ErrImage, "x", nil), LabelImageError},
		{"other", errors.New("boom"), LabelInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := newError(ErrImage, "decode png", cause)

	if !errors.Is(err, ErrImage) {
		t.Error("errors.Is(err, ErrImage) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if got := Detail(err); got != "decode png" {
		t.Errorf("Detail() = %q", got)
	}
	if got := err.Error(); got != "image error: decode png: disk on fire" {
		t.Errorf("Error() = %q", got)
	}
}

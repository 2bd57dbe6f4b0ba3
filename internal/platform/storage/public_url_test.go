package storage

import "testing"

func TestGCSPublicURL(t *testing.T) {
	cases := []struct {
		name     string
		mode     Mode
		cdn      string
		base     string
		emulator string
		want     string
	}{
		{
			name: "default",
			mode: ModeGCS,
			want: "https://storage.googleapis.com/contact-images/u_ana_ab12.png",
		},
		{
			name: "cdn wins",
			mode: ModeGCS,
			cdn:  "cdn.example.com",
			base: "http://ignored:4443",
			want: "https://cdn.example.com/u_ana_ab12.png",
		},
		{
			name: "public base",
			mode: ModeGCS,
			base: "http://localhost:4443",
			want: "http://localhost:4443/contact-images/u_ana_ab12.png",
		},
		{
			name:     "emulator media url",
			mode:     ModeGCSEmulator,
			emulator: "http://fake-gcs:4443",
			want:     "http://fake-gcs:4443/storage/v1/b/contact-images/o/u_ana_ab12.png?alt=media",
		},
		{
			name:     "emulator prefers public base",
			mode:     ModeGCSEmulator,
			base:     "http://localhost:4443",
			emulator: "http://fake-gcs:4443",
			want:     "http://localhost:4443/storage/v1/b/contact-images/o/u_ana_ab12.png?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := gcsPublicURL(tc.mode, "contact-images", tc.cdn, tc.base, tc.emulator, "/u_ana_ab12.png")
			if got != tc.want {
				t.Fatalf("url: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestResolvePublicBaseURL(t *testing.T) {
	base, source, err := resolvePublicBaseURL(Config{Mode: ModeGCS})
	if err != nil || base != "" || source != "gcs_default" {
		t.Fatalf("default: base=%q source=%q err=%v", base, source, err)
	}

	base, source, err = resolvePublicBaseURL(Config{Mode: ModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443/"})
	if err != nil || base != "http://fake-gcs:4443" || source != "storage_emulator_host" {
		t.Fatalf("emulator: base=%q source=%q err=%v", base, source, err)
	}

	base, source, err = resolvePublicBaseURL(Config{Mode: ModeGCS, PublicBaseURL: "http://localhost:4443/"})
	if err != nil || base != "http://localhost:4443" || source != "object_storage_public_base_url" {
		t.Fatalf("explicit: base=%q source=%q err=%v", base, source, err)
	}

	if _, _, err := resolvePublicBaseURL(Config{Mode: ModeGCS, PublicBaseURL: "nope"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestS3PublicURL(t *testing.T) {
	if got := s3PublicURL("", "contact-images", "us-east-1", "a.png"); got != "https://contact-images.s3.us-east-1.amazonaws.com/a.png" {
		t.Fatalf("regional: got=%q", got)
	}
	if got := s3PublicURL("", "contact-images", "", "a.png"); got != "https://contact-images.s3.amazonaws.com/a.png" {
		t.Fatalf("global: got=%q", got)
	}
	if got := s3PublicURL("http://minio:9000/contact-images", "contact-images", "us-east-1", "/a.png"); got != "http://minio:9000/contact-images/a.png" {
		t.Fatalf("custom base: got=%q", got)
	}
}

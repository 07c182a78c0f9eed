package dater

import "testing"

// TestDatetimePriority is testable property 5.
func TestDatetimePriority(t *testing.T) {
	exif := &ExifDateTime{DateTimeOriginal: "2020:06:15 10:30:00"}
	pdt := ParseDateTime("/photos/2019-07-04_pic.jpg", exif)
	if pdt == nil || pdt.Year == nil || *pdt.Year != 2020 {
		t.Fatalf("expected EXIF year 2020, got %+v", pdt)
	}

	pdt = ParseDateTime("/photos/2019-07-04_pic.jpg", nil)
	if pdt == nil || pdt.Year == nil || *pdt.Year != 2019 {
		t.Fatalf("expected filename year 2019, got %+v", pdt)
	}

	pdt = ParseDateTime("/archive/2018/misc/noname.jpg", nil)
	if pdt == nil || pdt.Year == nil || *pdt.Year != 2018 {
		t.Fatalf("expected path year 2018, got %+v", pdt)
	}
	if pdt.Month != nil || pdt.Day != nil {
		t.Errorf("expected month and day to be nil for path-only match, got %+v", pdt)
	}
}

func TestExifDateTimeFieldOrder(t *testing.T) {
	exif := &ExifDateTime{
		DateTimeDigitized: "2021:01:01 00:00:00",
		DateTimeModified:  "2022:01:01 00:00:00",
	}
	pdt := ParseDateTime("noname.jpg", exif)
	if pdt == nil || pdt.Year == nil || *pdt.Year != 2021 {
		t.Fatalf("expected DateTimeDigitized to win over DateTimeModified, got %+v", pdt)
	}
}

func TestFilenamePatternVariants(t *testing.T) {
	cases := map[string]int{
		"2020-06-15_14-30-00.jpg":  2020,
		"20200615_143000.jpg":      2020,
		"IMG_20200615_143000.jpg":  2020,
		"2020-06-15.jpg":           2020,
		"20200615.jpg":             2020,
	}
	for name, wantYear := range cases {
		pdt := ParseDateTime("/photos/"+name, nil)
		if pdt == nil || pdt.Year == nil || *pdt.Year != wantYear {
			t.Errorf("%s: expected year %d, got %+v", name, wantYear, pdt)
		}
	}
}

func TestNoSourceYieldsNil(t *testing.T) {
	pdt := ParseDateTime("/flat/noname.jpg", nil)
	if pdt != nil {
		t.Errorf("expected nil, got %+v", pdt)
	}
}

func TestGPSCoordinate(t *testing.T) {
	v, err := GPSCoordinate(40, 26, 46.8, "N")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "40.446333" {
		t.Errorf("expected 40.446333, got %s", v)
	}

	v, err = GPSCoordinate(40, 26, 46.8, "S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "-40.446333" {
		t.Errorf("expected -40.446333, got %s", v)
	}
}

func TestGPSCoordinateRejectsBadRef(t *testing.T) {
	if _, err := GPSCoordinate(1, 1, 1, "Q"); err == nil {
		t.Error("expected error for malformed reference")
	}
}

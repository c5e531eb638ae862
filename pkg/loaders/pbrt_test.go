package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/df07/go-curve-kernels/pkg/core"
)

func TestTokenizePBRT(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple statement",
			input:    `Camera "perspective"`,
			expected: []string{`Camera`, `"perspective"`},
		},
		{
			name:     "statement with parameters",
			input:    `Camera "perspective" "float fov" 45`,
			expected: []string{`Camera`, `"perspective"`, `"float fov"`, `45`},
		},
		{
			name:     "curve with arrays",
			input:    `Shape "curve" "point3 P" [0 0 0 1 0 0] "float width0" 0.1`,
			expected: []string{`Shape`, `"curve"`, `"point3 P"`, `[0 0 0 1 0 0]`, `"float width0"`, `0.1`},
		},
		{
			name:     "quoted string inside brackets",
			input:    `Shape "curve" "string basis" ["bspline"]`,
			expected: []string{`Shape`, `"curve"`, `"string basis"`, `["bspline"]`},
		},
		{
			name:     "tabs separate tokens",
			input:    "Shape\t\"sphere\"\t\"float radius\"\t2",
			expected: []string{`Shape`, `"sphere"`, `"float radius"`, `2`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenizePBRT(tt.input)
			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("tokenizePBRT() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStatement(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedType  string
		expectedSub   string
		expectedParam string
		expectedValue []string
	}{
		{
			name:          "camera statement",
			input:         `Camera "perspective" "float fov" 45`,
			expectedType:  "Camera",
			expectedSub:   "perspective",
			expectedParam: "fov",
			expectedValue: []string{"45"},
		},
		{
			name:          "curve points",
			input:         `Shape "curve" "point3 P" [0 0 0 1 1 0 2 1 0 3 0 0]`,
			expectedType:  "Shape",
			expectedSub:   "curve",
			expectedParam: "P",
			expectedValue: []string{"0", "0", "0", "1", "1", "0", "2", "1", "0", "3", "0", "0"},
		},
		{
			name:          "quotes stripped from string values",
			input:         `Shape "curve" "string type" "ribbon"`,
			expectedType:  "Shape",
			expectedSub:   "curve",
			expectedParam: "type",
			expectedValue: []string{"ribbon"},
		},
		{
			name:          "bracketed string value",
			input:         `Shape "curve" "string basis" [ "catmullrom" ]`,
			expectedType:  "Shape",
			expectedSub:   "curve",
			expectedParam: "basis",
			expectedValue: []string{"catmullrom"},
		},
		{
			name:          "translate",
			input:         `Translate 1 -2 3.5`,
			expectedType:  "Translate",
			expectedParam: "values",
			expectedValue: []string{"1", "-2", "3.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := parseStatement(tt.input)
			if err != nil {
				t.Fatalf("parseStatement() error = %v", err)
			}
			if stmt.Type != tt.expectedType {
				t.Errorf("Expected type %q, got %q", tt.expectedType, stmt.Type)
			}
			if stmt.Subtype != tt.expectedSub {
				t.Errorf("Expected subtype %q, got %q", tt.expectedSub, stmt.Subtype)
			}
			if diff := cmp.Diff(tt.expectedValue, stmt.Parameters[tt.expectedParam].Values); diff != "" {
				t.Errorf("Parameter %q mismatch (-want +got):\n%s", tt.expectedParam, diff)
			}
		})
	}
}

func TestParseStatement_Invalid(t *testing.T) {
	if _, err := parseStatement("Shape"); err == nil {
		t.Error("Expected an error for a statement without arguments")
	}
}

func TestParseLookAt(t *testing.T) {
	stmt, err := parseStatement("LookAt 1 2 3 4 5 6 7 8 9")
	if err != nil {
		t.Fatalf("parseStatement() error = %v", err)
	}

	scene := &PBRTScene{}
	if err := parseLookAt(stmt, scene); err != nil {
		t.Fatalf("parseLookAt() error = %v", err)
	}

	expectedEye := core.Vec3{X: 1, Y: 2, Z: 3}
	expectedAt := core.Vec3{X: 4, Y: 5, Z: 6}
	expectedUp := core.Vec3{X: 7, Y: 8, Z: 9}

	if *scene.LookAt != expectedEye {
		t.Errorf("parseLookAt() eye = %v, want %v", *scene.LookAt, expectedEye)
	}
	if *scene.LookAtTo != expectedAt {
		t.Errorf("parseLookAt() at = %v, want %v", *scene.LookAtTo, expectedAt)
	}
	if *scene.LookAtUp != expectedUp {
		t.Errorf("parseLookAt() up = %v, want %v", *scene.LookAtUp, expectedUp)
	}
}

func TestParseLookAt_Errors(t *testing.T) {
	for _, input := range []string{"LookAt 1 2 3", "LookAt 1 2 3 4 5 6 7 8 x"} {
		t.Run(input, func(t *testing.T) {
			stmt, err := parseStatement(input)
			if err != nil {
				t.Fatalf("parseStatement() error = %v", err)
			}
			if err := parseLookAt(stmt, &PBRTScene{}); err == nil {
				t.Errorf("Expected an error for %q", input)
			}
		})
	}
}

func TestGetParameterMethods(t *testing.T) {
	stmt := &PBRTStatement{
		Parameters: map[string]PBRTParam{
			"fov":         {Type: "float", Values: []string{"45.5"}},
			"xresolution": {Type: "integer", Values: []string{"640"}},
			"position":    {Type: "point3", Values: []string{"1.0", "2.0", "3.0"}},
			"P":           {Type: "point3", Values: []string{"0", "0", "0", "1", "2", "3"}},
			"bad":         {Type: "point3", Values: []string{"0", "0"}},
			"type":        {Type: "string", Values: []string{"ribbon"}},
		},
	}

	fov, ok := stmt.GetFloatParam("fov")
	if !ok || fov != 45.5 {
		t.Errorf("GetFloatParam() = %v, %v, want 45.5, true", fov, ok)
	}

	x, ok := stmt.GetIntParam("xresolution")
	if !ok || x != 640 {
		t.Errorf("GetIntParam() = %v, %v, want 640, true", x, ok)
	}
	if _, ok := stmt.GetIntParam("fov"); ok {
		t.Error("GetIntParam() should reject a non-integer value")
	}

	pos, ok := stmt.GetPoint3Param("position")
	if !ok || *pos != (core.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("GetPoint3Param() = %v, %v, want (1,2,3), true", pos, ok)
	}

	points, err := stmt.GetPoint3sParam("P")
	if err != nil {
		t.Fatalf("GetPoint3sParam() error = %v", err)
	}
	if diff := cmp.Diff([]core.Vec3{{}, {X: 1, Y: 2, Z: 3}}, points); diff != "" {
		t.Errorf("GetPoint3sParam() mismatch (-want +got):\n%s", diff)
	}
	if _, err := stmt.GetPoint3sParam("bad"); err == nil {
		t.Error("GetPoint3sParam() should reject a count that is not a multiple of 3")
	}
	if missing, err := stmt.GetPoint3sParam("missing"); err != nil || missing != nil {
		t.Errorf("GetPoint3sParam() on a missing parameter = %v, %v, want nil, nil", missing, err)
	}

	s, ok := stmt.GetStringParam("type")
	if !ok || s != "ribbon" {
		t.Errorf("GetStringParam() = %v, %v, want ribbon, true", s, ok)
	}
	if _, ok := stmt.GetStringParam("missing"); ok {
		t.Error("GetStringParam() should not find a missing parameter")
	}
}

func TestParsePBRT_Basic(t *testing.T) {
	content := `# Test PBRT file
LookAt 0 0 1  0 0 0  0 1 0
Camera "perspective" "float fov" 45

Film "rgb" "string filename" "test.png" "integer xresolution" 400 "integer yresolution" 300
Sampler "halton"

WorldBegin

Material "diffuse" "rgb reflectance" [0.7 0.7 0.7]
Shape "sphere" "float radius" 1.0
Shape "curve" "point3 P" [0 0 0 1 1 0 2 1 0 3 0 0] "float width" 0.1
LightSource "infinite" "rgb L" [1 1 1]

WorldEnd
`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}

	if scene.Camera == nil || scene.Camera.Subtype != "perspective" {
		t.Errorf("Expected a perspective camera, got %v", scene.Camera)
	}
	if scene.LookAt == nil {
		t.Error("Expected a LookAt position")
	}
	if scene.Film == nil {
		t.Error("Expected a film")
	}
	if len(scene.Shapes) != 2 {
		t.Fatalf("Expected 2 shapes, got %d", len(scene.Shapes))
	}
	if scene.Shapes[1].Subtype != "curve" {
		t.Errorf("Expected the second shape to be a curve, got %q", scene.Shapes[1].Subtype)
	}
}

func TestParsePBRT_MultiLineStatements(t *testing.T) {
	content := `Camera "perspective"
    "float fov" 40
WorldBegin
Shape "curve"
    "point3 P" [ 0 0 0
                 1 1 0
                 2 1 0
                 3 0 0 ]
    "string type" "cylinder"
    "float width0" 0.2 "float width1" 0.1
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}
	if len(scene.Shapes) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(scene.Shapes))
	}

	shape := scene.Shapes[0]
	if got := len(shape.Parameters["P"].Values); got != 12 {
		t.Errorf("Expected 12 point values, got %d", got)
	}
	if w1, _ := shape.GetFloatParam("width1"); w1 != 0.1 {
		t.Errorf("Expected width1 0.1, got %f", w1)
	}
	if typ, _ := shape.GetStringParam("type"); typ != "cylinder" {
		t.Errorf("Expected type cylinder, got %q", typ)
	}
}

func TestParsePBRT_AttributeTranslation(t *testing.T) {
	content := `WorldBegin
Translate 1 0 0
Shape "sphere"
AttributeBegin
    Translate 0 2 0
    Shape "sphere"
    AttributeBegin
        Translate 0 0 3
        Shape "sphere"
    AttributeEnd
    Shape "sphere"
AttributeEnd
Shape "sphere"
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}

	expected := []core.Vec3{
		{X: 1},
		{X: 1, Y: 2},
		{X: 1, Y: 2, Z: 3},
		{X: 1, Y: 2},
		{X: 1},
	}
	var got []core.Vec3
	for _, shape := range scene.Shapes {
		got = append(got, shape.Translation)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Translation mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePBRT_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr error
	}{
		{"rotate", "WorldBegin\nRotate 45 0 1 0\nWorldEnd", ErrUnsupportedTransform},
		{"scale", "WorldBegin\nScale 2 2 2\nWorldEnd", ErrUnsupportedTransform},
		{"camera translate", "Translate 0 0 1\nWorldBegin\nWorldEnd", ErrUnsupportedTransform},
		{"unmatched AttributeEnd", "WorldBegin\nAttributeEnd\nWorldEnd", nil},
		{"unclosed AttributeBegin", "WorldBegin\nAttributeBegin\nWorldEnd", nil},
		{"dangling continuation", "\"float fov\" 45", nil},
		{"bad translate", "WorldBegin\nTranslate 1 2\nWorldEnd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePBRT(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Errorf("Expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestStatementStartDetection(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"Camera \"perspective\"", true},
		{"Film \"rgb\"", true},
		{"Shape \"curve\"", true},
		{"Translate 1 2 3", true},
		{"ConcatTransform [1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1]", true},
		{"LookAt 0 0 1 0 0 0 0 1 0", true},
		{"ReverseOrientation", true},

		// Continuation lines
		{"    \"float width\" 0.1", false},
		{"\"point3 P\" [0 0 0]", false},

		// Handled separately
		{"WorldBegin", false},
		{"AttributeBegin", false},

		{"UnknownStatement \"test\"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if result := isStatementStart(tt.line); result != tt.expected {
				t.Errorf("isStatementStart(%q) = %v, want %v", tt.line, result, tt.expected)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative pbrt", "scenes/hair.pbrt", false},
		{"absolute pbrt", "/tmp/curves/hair.PBRT", false},
		{"empty", "", true},
		{"wrong extension", "scenes/hair.obj", true},
		{"null byte", "scenes/ha\x00ir.pbrt", true},
		{"too long", strings.Repeat("a", 600) + ".pbrt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestLoadPBRT_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.pbrt")
	content := "WorldBegin\nShape \"sphere\" \"float radius\" 2\nWorldEnd\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	scene, err := LoadPBRT(path)
	if err != nil {
		t.Fatalf("LoadPBRT() error = %v", err)
	}
	if len(scene.Shapes) != 1 {
		t.Errorf("Expected 1 shape, got %d", len(scene.Shapes))
	}

	if _, err := LoadPBRT(filepath.Join(t.TempDir(), "missing.pbrt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

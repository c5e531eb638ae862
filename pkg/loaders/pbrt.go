package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-curve-kernels/pkg/core"
)

var (
	// ErrUnsupportedShape is returned for a Shape this loader cannot turn into geometry
	ErrUnsupportedShape = errors.New("unsupported shape")
	// ErrUnsupportedTransform is returned for transforms other than a world-space Translate
	ErrUnsupportedTransform = errors.New("unsupported transform")
)

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type        string               // Statement type (Camera, Film, Shape, etc.)
	Subtype     string               // Subtype (perspective, curve, sphere, etc.)
	Parameters  map[string]PBRTParam // Named parameters
	Translation core.Vec3            // For shapes: accumulated Translate of the graphics state
}

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, point3, normal, string, etc.)
	Values []string // Parameter values as strings
}

// PBRTScene contains all parsed PBRT scene data
type PBRTScene struct {
	// Pre-WorldBegin statements
	Camera   *PBRTStatement
	LookAt   *core.Vec3 // Eye position
	LookAtTo *core.Vec3 // Look at target
	LookAtUp *core.Vec3 // Up vector
	Film     *PBRTStatement

	// World content (inside WorldBegin/WorldEnd)
	Shapes []PBRTStatement
}

// GraphicsState is the part of the PBRT graphics state saved by AttributeBegin
type GraphicsState struct {
	Translation core.Vec3
}

// PBRTParser encapsulates the state and logic for parsing PBRT files
type PBRTParser struct {
	scene          *PBRTScene
	state          GraphicsState
	stateStack     []GraphicsState
	inWorld        bool
	statementLines []string
}

// ParsePBRT parses PBRT content from an io.Reader
func ParsePBRT(reader io.Reader) (*PBRTScene, error) {
	parser := NewPBRTParser()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024) // Curve control point lists can be long
	for scanner.Scan() {
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	// Process any remaining accumulated statements
	if err := parser.finalize(); err != nil {
		return nil, err
	}

	return parser.scene, nil
}

// LoadPBRT loads and parses a PBRT scene file
func LoadPBRT(filename string) (*PBRTScene, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %w", err)
	}
	defer file.Close()

	return ParsePBRT(file)
}

// NewPBRTParser creates a new PBRT parser instance
func NewPBRTParser() *PBRTParser {
	return &PBRTParser{scene: &PBRTScene{}}
}

// processAccumulatedStatement processes any accumulated statement lines and clears them
func (p *PBRTParser) processAccumulatedStatement(context string) error {
	if len(p.statementLines) == 0 {
		return nil
	}
	fullStatement := strings.Join(p.statementLines, " ")
	p.statementLines = nil

	stmt, err := parseStatement(fullStatement)
	if err != nil {
		return fmt.Errorf("error parsing statement %s '%s': %w", context, fullStatement, err)
	}
	return p.routeStatement(stmt)
}

// processAttributeBegin saves the graphics state
func (p *PBRTParser) processAttributeBegin() error {
	if err := p.processAccumulatedStatement("before AttributeBegin"); err != nil {
		return err
	}
	p.stateStack = append(p.stateStack, p.state)
	return nil
}

// processAttributeEnd restores the graphics state saved by the matching AttributeBegin
func (p *PBRTParser) processAttributeEnd() error {
	if err := p.processAccumulatedStatement("before AttributeEnd"); err != nil {
		return err
	}
	if len(p.stateStack) == 0 {
		return fmt.Errorf("AttributeEnd without matching AttributeBegin")
	}
	p.state = p.stateStack[len(p.stateStack)-1]
	p.stateStack = p.stateStack[:len(p.stateStack)-1]
	return nil
}

// processLine processes a single line of PBRT input
func (p *PBRTParser) processLine(line string) error {
	line = strings.TrimSpace(line)

	// Skip empty lines and comments
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	switch line {
	case "WorldBegin":
		if err := p.processAccumulatedStatement("before WorldBegin"); err != nil {
			return err
		}
		p.inWorld = true
		return nil
	case "WorldEnd":
		if err := p.processAccumulatedStatement("before WorldEnd"); err != nil {
			return err
		}
		p.inWorld = false
		return nil
	case "AttributeBegin":
		return p.processAttributeBegin()
	case "AttributeEnd":
		return p.processAttributeEnd()
	}

	if isStatementStart(line) {
		if err := p.processAccumulatedStatement(""); err != nil {
			return err
		}
		p.statementLines = []string{line}
		return nil
	}

	// Continue previous statement
	if len(p.statementLines) == 0 {
		return fmt.Errorf("unexpected continuation line: %s", line)
	}
	p.statementLines = append(p.statementLines, line)
	return nil
}

// finalize processes any remaining accumulated statements
func (p *PBRTParser) finalize() error {
	if err := p.processAccumulatedStatement("at end of file"); err != nil {
		return err
	}
	if len(p.stateStack) > 0 {
		return fmt.Errorf("%d AttributeBegin without matching AttributeEnd", len(p.stateStack))
	}
	return nil
}

// routeStatement routes a parsed statement to the appropriate section of the scene
func (p *PBRTParser) routeStatement(stmt *PBRTStatement) error {
	switch stmt.Type {
	case "LookAt":
		if err := parseLookAt(stmt, p.scene); err != nil {
			return fmt.Errorf("error parsing LookAt: %w", err)
		}
		return nil
	case "Translate":
		if !p.inWorld {
			return fmt.Errorf("%w: camera Translate", ErrUnsupportedTransform)
		}
		offset, err := parseVec3(stmt.Parameters["values"].Values)
		if err != nil {
			return fmt.Errorf("error parsing Translate: %w", err)
		}
		p.state.Translation = p.state.Translation.Add(offset)
		return nil
	case "Rotate", "Scale", "Transform", "ConcatTransform":
		return fmt.Errorf("%w: %s", ErrUnsupportedTransform, stmt.Type)
	}

	if !p.inWorld {
		switch stmt.Type {
		case "Camera":
			p.scene.Camera = stmt
		case "Film":
			p.scene.Film = stmt
		}
		return nil
	}

	// Materials and lights do not affect intersection and are skipped
	if stmt.Type == "Shape" {
		stmt.Translation = p.state.Translation
		p.scene.Shapes = append(p.scene.Shapes, *stmt)
	}
	return nil
}

// validateFilePath validates a scene file path
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".pbrt") {
		return fmt.Errorf("invalid file type: only .pbrt files are allowed")
	}
	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	return nil
}

// parseLookAt parses a LookAt statement into scene camera vectors
func parseLookAt(stmt *PBRTStatement, scene *PBRTScene) error {
	// LookAt should have 9 values: eyex eyey eyez atx aty atz upx upy upz
	values := stmt.Parameters["values"].Values
	if len(values) != 9 {
		return fmt.Errorf("LookAt requires 9 values, got %d", len(values))
	}

	eye, err := parseVec3(values[0:3])
	if err != nil {
		return fmt.Errorf("invalid eye position: %w", err)
	}
	at, err := parseVec3(values[3:6])
	if err != nil {
		return fmt.Errorf("invalid look-at target: %w", err)
	}
	up, err := parseVec3(values[6:9])
	if err != nil {
		return fmt.Errorf("invalid up vector: %w", err)
	}

	scene.LookAt, scene.LookAtTo, scene.LookAtUp = &eye, &at, &up
	return nil
}

// parseVec3 parses exactly three floats
func parseVec3(values []string) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 values, got %d", len(values))
	}
	var xyz [3]float64
	for i, s := range values {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid coordinate '%s': %w", s, err)
		}
		xyz[i] = f
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

// tokenizePBRT tokenizes a PBRT line respecting quoted strings and brackets
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range line {
		switch {
		case char == '"' && !inBrackets:
			current.WriteRune(char)
			if inQuotes {
				flush()
			}
			inQuotes = !inQuotes
		case char == '[' && !inQuotes:
			flush()
			current.WriteRune(char)
			inBrackets = true
		case char == ']' && !inQuotes && inBrackets:
			current.WriteRune(char)
			flush()
			inBrackets = false
		case (char == ' ' || char == '\t') && !inQuotes && !inBrackets:
			flush()
		default:
			current.WriteRune(char)
		}
	}
	flush()

	return tokens
}

// parseStatement parses a single PBRT statement line
func parseStatement(line string) (*PBRTStatement, error) {
	// Transforms take bare numbers instead of a quoted subtype
	for _, transform := range []string{"LookAt", "Translate", "Rotate", "Scale", "Transform", "ConcatTransform"} {
		if line == transform || strings.HasPrefix(line, transform+" ") {
			parts := strings.Fields(strings.NewReplacer("[", " ", "]", " ").Replace(line[len(transform):]))
			return &PBRTStatement{
				Type: transform,
				Parameters: map[string]PBRTParam{
					"values": {Type: "float", Values: parts},
				},
			}, nil
		}
	}

	// Parse regular statements: Type "subtype" "param type" value
	parts := tokenizePBRT(line)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid statement format")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}

	// Extract subtype (quoted string after type)
	if strings.HasPrefix(parts[1], "\"") && strings.HasSuffix(parts[1], "\"") {
		stmt.Subtype = strings.Trim(parts[1], "\"")
		parts = parts[2:]
	} else {
		parts = parts[1:]
	}

	for i := 0; i < len(parts); {
		if !strings.HasPrefix(parts[i], "\"") {
			i++
			continue
		}

		// Find parameter name and type
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		i++
		if len(paramParts) != 2 {
			continue
		}

		var values []string
		if i < len(parts) {
			if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
				values = strings.Fields(strings.Trim(parts[i], "[] "))
			} else {
				values = []string{parts[i]}
			}
			i++
		}
		for j, v := range values {
			values[j] = strings.Trim(v, "\"")
		}

		stmt.Parameters[paramParts[1]] = PBRTParam{
			Type:   paramParts[0],
			Values: values,
		}
	}

	return stmt, nil
}

// GetFloatParam extracts a float parameter from a PBRT statement
func (stmt *PBRTStatement) GetFloatParam(name string) (float64, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetIntParam extracts an integer parameter from a PBRT statement
func (stmt *PBRTStatement) GetIntParam(name string) (int, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.Atoi(param.Values[0])
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetFloatsParam extracts every value of a float array parameter
func (stmt *PBRTStatement) GetFloatsParam(name string) ([]float64, error) {
	param, exists := stmt.Parameters[name]
	if !exists {
		return nil, nil
	}
	floats := make([]float64, len(param.Values))
	for i, s := range param.Values {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q value %d: %w", name, i, err)
		}
		floats[i] = f
	}
	return floats, nil
}

// GetPoint3Param extracts a point3 parameter from a PBRT statement
func (stmt *PBRTStatement) GetPoint3Param(name string) (*core.Vec3, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) < 3 {
		return nil, false
	}
	v, err := parseVec3(param.Values[:3])
	if err != nil {
		return nil, false
	}
	return &v, true
}

// GetPoint3sParam extracts a list of points (or normals, vectors) from a parameter
func (stmt *PBRTStatement) GetPoint3sParam(name string) ([]core.Vec3, error) {
	floats, err := stmt.GetFloatsParam(name)
	if err != nil {
		return nil, err
	}
	if len(floats)%3 != 0 {
		return nil, fmt.Errorf("parameter %q has %d values, not a multiple of 3", name, len(floats))
	}
	points := make([]core.Vec3, len(floats)/3)
	for i := range points {
		points[i] = core.NewVec3(floats[3*i], floats[3*i+1], floats[3*i+2])
	}
	return points, nil
}

// GetStringParam extracts a string parameter from a PBRT statement
func (stmt *PBRTStatement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	return param.Values[0], true
}

// isStatementStart determines if a line starts a new PBRT statement
func isStatementStart(line string) bool {
	statementTypes := []string{
		"Camera", "Film", "Sampler", "Integrator", "LookAt",
		"Material", "Shape", "LightSource", "AreaLightSource",
		"Translate", "Rotate", "Scale", "Transform", "ConcatTransform",
		"ReverseOrientation", "Attribute",
	}

	for _, stmt := range statementTypes {
		if strings.HasPrefix(line, stmt+" ") || line == stmt {
			return true
		}
	}
	return false
}

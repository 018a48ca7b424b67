package keyfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/sift/vision/keypoints"
)

// line is a non-empty line of a key file with its 1-based line number.
type line struct {
	num    int
	fields []string
}

func readLines(r io.Reader) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	num := 0
	for scanner.Scan() {
		num++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, line{num, fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Read parses a key file in either format. The format is FormatLowe when the first line is a
// two field header, FormatVLFeat otherwise.
func Read(r io.Reader) ([]keypoints.SIFTDescriptor, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []keypoints.SIFTDescriptor{}, nil
	}
	if len(lines[0].fields) == 2 {
		return parseLowe(lines)
	}
	return parseVLFeat(lines)
}

func parseFloat(s string, num int) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d", num)
	}
	return v, nil
}

func parseFeature(s string, num int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d", num)
	}
	if v < 0 || v > 255 {
		return 0, errors.Errorf("line %d: feature %d is outside [0, 255]", num, v)
	}
	return v, nil
}

func parseVLFeat(lines []line) ([]keypoints.SIFTDescriptor, error) {
	descs := make([]keypoints.SIFTDescriptor, 0, len(lines))
	length := len(lines[0].fields) - 4
	for _, l := range lines {
		if len(l.fields) < 4 {
			return nil, errors.Errorf("line %d: expected at least 4 fields, got %d", l.num, len(l.fields))
		}
		if len(l.fields)-4 != length {
			return nil, errors.Errorf("line %d: expected %d features, got %d", l.num, length, len(l.fields)-4)
		}
		var geom [4]float64
		for i := range geom {
			v, err := parseFloat(l.fields[i], l.num)
			if err != nil {
				return nil, err
			}
			geom[i] = v
		}
		features := make([]int, length)
		for i := range features {
			v, err := parseFeature(l.fields[4+i], l.num)
			if err != nil {
				return nil, err
			}
			features[i] = v
		}
		descs = append(descs, keypoints.SIFTDescriptor{
			X:           geom[0],
			Y:           geom[1],
			Scale:       geom[2],
			Orientation: geom[3],
			Features:    features,
		})
	}
	return descs, nil
}

// tokens walks the fields of a key file regardless of line breaks.
type tokens struct {
	lines []line
	li    int
	fi    int
}

// remaining counts the fields left to walk.
func (t *tokens) remaining() int {
	n := 0
	for i := t.li; i < len(t.lines); i++ {
		n += len(t.lines[i].fields)
	}
	return n - t.fi
}

// next returns the next field and its line number, or false at the end of the file.
func (t *tokens) next() (string, int, bool) {
	for t.li < len(t.lines) && t.fi >= len(t.lines[t.li].fields) {
		t.li++
		t.fi = 0
	}
	if t.li >= len(t.lines) {
		return "", 0, false
	}
	l := t.lines[t.li]
	t.fi++
	return l.fields[t.fi-1], l.num, true
}

func parseLowe(lines []line) ([]keypoints.SIFTDescriptor, error) {
	header := lines[0]
	count, err := strconv.Atoi(header.fields[0])
	if err != nil || count < 0 {
		return nil, errors.Errorf("line %d: invalid descriptor count %q", header.num, header.fields[0])
	}
	length, err := strconv.Atoi(header.fields[1])
	if err != nil || length < 0 {
		return nil, errors.Errorf("line %d: invalid descriptor length %q", header.num, header.fields[1])
	}

	toks := &tokens{lines: lines[1:]}
	if have := toks.remaining(); length > have || count > have/(4+length) {
		return nil, errors.Errorf("line %d: header announces %d descriptors of length %d but only %d values follow",
			header.num, count, length, have)
	}
	descs := make([]keypoints.SIFTDescriptor, 0, count)
	for i := 0; i < count; i++ {
		var geom [4]float64
		for k := range geom {
			s, num, ok := toks.next()
			if !ok {
				return nil, errors.Errorf("unexpected end of file in descriptor %d of %d", i+1, count)
			}
			v, err := parseFloat(s, num)
			if err != nil {
				return nil, err
			}
			geom[k] = v
		}
		features := make([]int, length)
		for k := range features {
			s, num, ok := toks.next()
			if !ok {
				return nil, errors.Errorf("unexpected end of file in descriptor %d of %d", i+1, count)
			}
			v, err := parseFeature(s, num)
			if err != nil {
				return nil, err
			}
			features[k] = v
		}
		descs = append(descs, keypoints.SIFTDescriptor{
			X:           geom[1],
			Y:           geom[0],
			Scale:       geom[2],
			Orientation: geom[3],
			Features:    features,
		})
	}
	if _, num, ok := toks.next(); ok {
		return nil, errors.Errorf("line %d: unexpected data after %d descriptors", num, count)
	}
	return descs, nil
}

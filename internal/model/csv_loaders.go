package model

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// The four data tables are semicolon-separated CSV files, optionally
// prefixed with "# key: value" comment lines (description,
// data_version, format_version).

// ReadCSVMetadata reads the comment-header block of a data file.
func ReadCSVMetadata(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	metadata := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		key, value, found := strings.Cut(strings.TrimPrefix(line, "#"), ":")
		if !found {
			metadata[strings.TrimSpace(key)] = "true"
			continue
		}
		metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return metadata, scanner.Err()
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// LoadBedsCSV loads the beds table. The table has two header rows: a
// category row (metadata / adjacent_beds) and a column-name row;
// adjacency columns hold comma-separated neighbour bed ids.
func LoadBedsCSV(path string) ([]Bed, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: beds table %s lacks the two header rows", ErrDataIntegrity, path)
	}
	categories, names := records[0], records[1]

	var beds []Bed
	for _, row := range records[2:] {
		bed := Bed{
			Adjacent:   map[string][]int{},
			Attributes: Attributes{},
		}
		seenID := false
		for column, cell := range row {
			name := strings.TrimSpace(names[column])
			switch strings.TrimSpace(categories[column]) {
			case "adjacent_beds":
				neighbors, err := parseIntList(cell)
				if err != nil {
					return nil, fmt.Errorf("%w: bed adjacency column %q: %v", ErrDataIntegrity, name, err)
				}
				bed.Adjacent[name] = neighbors
			case "metadata":
				switch name {
				case "bed_id":
					id, err := strconv.Atoi(strings.TrimSpace(cell))
					if err != nil {
						return nil, fmt.Errorf("%w: invalid bed_id %q", ErrDataIntegrity, cell)
					}
					bed.ID = id
					seenID = true
				case "garden":
					bed.Garden = cell
					bed.Attributes[name] = cell
				default:
					bed.Attributes[name] = InferValue(cell)
				}
			default:
				return nil, fmt.Errorf("%w: unknown beds column category %q", ErrDataIntegrity, categories[column])
			}
		}
		if !seenID {
			return nil, fmt.Errorf("%w: beds table %s has no bed_id column", ErrDataIntegrity, path)
		}
		beds = append(beds, bed)
	}
	return beds, nil
}

// LoadCropTypesCSV loads the crop-type attributes table. The first
// column names the crop type; the remaining columns are free-form typed
// attributes.
func LoadCropTypesCSV(path string) (map[string]CropType, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: crop types table %s is empty", ErrDataIntegrity, path)
	}
	header := records[0]

	cropTypes := map[string]CropType{}
	for _, row := range records[1:] {
		cropType := CropType{Attributes: Attributes{}}
		for column, cell := range row {
			name := strings.TrimSpace(header[column])
			if name == "crop_type" {
				cropType.Name = strings.TrimSpace(cell)
				continue
			}
			cropType.Attributes[name] = InferValue(cell)
		}
		if cropType.Name == "" {
			return nil, fmt.Errorf("%w: crop types table %s has a row without crop_type", ErrDataIntegrity, path)
		}
		if _, ok := cropTypes[cropType.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate crop type %q", ErrDataIntegrity, cropType.Name)
		}
		cropTypes[cropType.Name] = cropType
	}
	return cropTypes, nil
}

// LoadCalendarCSV loads the future crop calendar.
func LoadCalendarCSV(path string) ([]CalendarEntry, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	columns, err := columnIndex(records, path, "crop_name", "crop_type", "starting_date", "ending_date", "quantity")
	if err != nil {
		return nil, err
	}

	var calendar []CalendarEntry
	for _, row := range records[1:] {
		interval, err := parseInterval(row[columns["starting_date"]], row[columns["ending_date"]])
		if err != nil {
			return nil, err
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(row[columns["quantity"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid quantity %q", ErrDataIntegrity, row[columns["quantity"]])
		}
		calendar = append(calendar, CalendarEntry{
			CropName: strings.TrimSpace(row[columns["crop_name"]]),
			CropType: strings.TrimSpace(row[columns["crop_type"]]),
			Interval: interval,
			Quantity: quantity,
		})
	}
	return calendar, nil
}

// LoadPastPlanCSV loads the optional historical crop plan.
func LoadPastPlanCSV(path string) ([]PastPlanEntry, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	columns, err := columnIndex(records, path, "crop_name", "crop_type", "starting_date", "ending_date", "allocated_beds_ids")
	if err != nil {
		return nil, err
	}

	var pastPlan []PastPlanEntry
	for _, row := range records[1:] {
		interval, err := parseInterval(row[columns["starting_date"]], row[columns["ending_date"]])
		if err != nil {
			return nil, err
		}
		beds, err := parseIntList(row[columns["allocated_beds_ids"]])
		if err != nil {
			return nil, fmt.Errorf("%w: allocated_beds_ids: %v", ErrDataIntegrity, err)
		}
		pastPlan = append(pastPlan, PastPlanEntry{
			CropName: strings.TrimSpace(row[columns["crop_name"]]),
			CropType: strings.TrimSpace(row[columns["crop_type"]]),
			Interval: interval,
			Beds:     beds,
		})
	}
	return pastPlan, nil
}

// DelayMatrix maps (preceding crop type, following crop type) to the
// minimum number of days a bed must rest between them.
type DelayMatrix map[string]map[string]int

// Delay returns the required delay in days, if one is defined.
func (m DelayMatrix) Delay(preceding, following string) (int, bool) {
	row, ok := m[preceding]
	if !ok {
		return 0, false
	}
	days, ok := row[following]
	return days, ok
}

// LoadReturnDelaysCSV loads a return-delay matrix: one row per
// preceding crop type, one column per following crop type, values in
// days. Empty cells mean no delay is required.
func LoadReturnDelaysCSV(path string) (DelayMatrix, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: return delays table %s is empty", ErrDataIntegrity, path)
	}
	header := records[0]

	matrix := DelayMatrix{}
	for _, row := range records[1:] {
		preceding := strings.TrimSpace(row[0])
		matrix[preceding] = map[string]int{}
		for column := 1; column < len(row); column++ {
			cell := strings.TrimSpace(row[column])
			if cell == "" {
				continue
			}
			days, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid delay %q for %q -> %q",
					ErrDataIntegrity, cell, preceding, header[column])
			}
			matrix[preceding][strings.TrimSpace(header[column])] = days
		}
	}
	return matrix, nil
}

func columnIndex(records [][]string, path string, required ...string) (map[string]int, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: table %s is empty", ErrDataIntegrity, path)
	}
	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: table %s lacks column %q", ErrDataIntegrity, path, name)
		}
	}
	return columns, nil
}

func parseInterval(start, end string) (Interval, error) {
	from, err := ParseStartingDate(strings.TrimSpace(start))
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	to, err := ParseEndingDate(strings.TrimSpace(end))
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	interval := Interval{Start: from, End: to}
	if !interval.Valid() {
		return Interval{}, fmt.Errorf("%w: malformed interval %s", ErrDataIntegrity, interval)
	}
	return interval, nil
}

func parseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		values = append(values, value)
	}
	return values, nil
}

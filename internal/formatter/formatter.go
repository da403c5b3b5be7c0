// package formatter renders shopping lists to export formats (CSV, Markdown, plain text, JSON) and writes the
// bulk export manifest
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ValidFormat reports whether format is one of [Formats].
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// FormatPrice renders a price with two decimals, or an empty string for zero.
func FormatPrice(price float64) string {
	if price == 0 {
		return ""
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// FormatQuantity renders a quantity with its unit, e.g. "2 kg" or "x3".
func FormatQuantity(item models.Item) string {
	if item.Unit != "" {
		return fmt.Sprintf("%d %s", item.Quantity, item.Unit)
	}
	return fmt.Sprintf("x%d", item.Quantity)
}

// ExportToCSV converts a ListExport to CSV format with columns: ID, Name, Category, Quantity, Unit, Price, Checked,
// Description
func ExportToCSV(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Category", "Quantity", "Unit", "Price", "Checked", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range export.Items {
		record := []string{
			item.ID,
			item.Name,
			item.Category,
			strconv.Itoa(item.Quantity),
			item.Unit,
			FormatPrice(item.Price),
			strconv.FormatBool(item.Checked),
			item.Description,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ListExport to a Markdown checklist grouped by category
func ExportToMarkdown(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.List.Name)
	fmt.Fprintf(&buf, "**Items**: %d\n", len(export.Items))
	fmt.Fprintf(&buf, "**Remaining**: %d\n", export.Remaining())
	if !export.SyncedAt.IsZero() {
		fmt.Fprintf(&buf, "**Synced**: %s\n", export.SyncedAt.Format("2006-01-02 15:04"))
	}
	buf.WriteString("\n")

	for _, group := range models.GroupByCategory(export.Items) {
		fmt.Fprintf(&buf, "## %s\n\n", group.Category)
		for _, item := range group.Items {
			mark := " "
			if item.Checked {
				mark = "x"
			}
			fmt.Fprintf(&buf, "- [%s] %s (%s)", mark, item.Name, FormatQuantity(item))
			if price := FormatPrice(item.Price); price != "" {
				fmt.Fprintf(&buf, " @ %s", price)
			}
			if item.Description != "" {
				fmt.Fprintf(&buf, ": %s", item.Description)
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ListExport to plain text format
func ExportToText(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", export.List.Name)
	fmt.Fprintf(&buf, "Items: %d (%d remaining)\n\n", len(export.Items), export.Remaining())

	for i, item := range export.Items {
		mark := " "
		if item.Checked {
			mark = "x"
		}
		fmt.Fprintf(&buf, "%d. [%s] %s %s\n", i+1, mark, item.Name, FormatQuantity(item))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ListExport to indented JSON
func ExportToJSON(export *models.ListExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ToMetadataJSON generates a JSON representation of list metadata (without items)
func ToMetadataJSON(export *models.ListExport) ([]byte, error) {
	return shared.MarshalJSON(struct {
		models.List
		Items     int    `json:"items"`
		Remaining int    `json:"remaining"`
		SyncedAt  string `json:"synced_at,omitempty"`
	}{
		List:      export.List,
		Items:     len(export.Items),
		Remaining: export.Remaining(),
		SyncedAt:  syncedAt(export),
	}, true)
}

func syncedAt(export *models.ListExport) string {
	if export.SyncedAt.IsZero() {
		return ""
	}
	return export.SyncedAt.UTC().Format(time.RFC3339)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports a list to CSV format with accompanying metadata JSON file.
//
// Defaults to list ID as the base filename & creates {base}_items.csv and {base}_metadata.json
func WriteCSVExport(export *models.ListExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.List.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ItemsFile:    itemsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a list to Markdown format in a dedicated directory.
//
// Directory name defaults to the list ID. Creates {dir}/README.md
func WriteMarkdownExport(export *models.ListExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.List.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport exports a list to plain text format.
//
// Defaults to {list.ID}_items.txt as the filename.
func WriteTextExport(export *models.ListExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_items.txt", export.List.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a list to JSON.
//
// Defaults to {list.ID}.json as the filename.
func WriteJSONExport(export *models.ListExport, path string) (string, error) {
	if path == "" {
		path = export.List.ID + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}

	return path, nil
}

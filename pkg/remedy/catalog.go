// Package remedy maps a disease label to commercial and traditional treatment guidance.
package remedy

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"plantguard-be/internal/pkg/logger"
)

const module = "remedy"

type Commercial struct {
	Product   string `json:"product"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency,omitempty"`
	Notes     string `json:"notes"`
}

// Traditional is the home-made ("jugaad") remedy block.
type Traditional struct {
	Recipe    string `json:"recipe"`
	Frequency string `json:"frequency"`
	Notes     string `json:"notes"`
}

type Entry struct {
	Disease    string      `json:"disease"`
	Commercial Commercial  `json:"commercial"`
	Jugaad     Traditional `json:"jugaad"`
}

// defaultEntry is returned for any label missing from the document.
var defaultEntry = Entry{
	Disease: "Unknown",
	Commercial: Commercial{
		Product: "Consult a local agricultural extension office.",
		Dosage:  "N/A",
		Notes:   "No specific remedy found for this diagnosis.",
	},
	Jugaad: Traditional{
		Recipe:    "Neem oil spray — mix 5ml neem oil in 1L water, spray on affected leaves.",
		Frequency: "Every 5-7 days",
		Notes:     "General-purpose organic treatment.",
	},
}

// Catalog is read-only after construction and safe for concurrent lookups.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from in-memory entries.
func New(entries map[string]Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

// Load reads the remedy document at path. A missing or malformed document is
// logged and yields an empty catalog.
func Load(path string, log logger.ILogger) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(module, "Remedy document not found, using empty set", map[string]interface{}{"path": path})
		} else {
			log.Error(module, "Error loading remedies", map[string]interface{}{"path": path, "error": err.Error()})
		}
		return New(nil)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Error(module, "Error parsing remedies", map[string]interface{}{"path": path, "error": err.Error()})
		return New(nil)
	}

	log.Info(module, "Loaded remedies", map[string]interface{}{"count": len(entries), "path": path})
	return &Catalog{entries: entries}
}

// Lookup returns the entry for label by exact match, or the default entry with
// its disease field set to label.
func (c *Catalog) Lookup(label string) Entry {
	if e, ok := c.entries[label]; ok {
		return e
	}
	e := defaultEntry
	e.Disease = label
	return e
}

// Has reports whether label has a dedicated entry.
func (c *Catalog) Has(label string) bool {
	_, ok := c.entries[label]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

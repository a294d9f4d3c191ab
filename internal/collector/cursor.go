package collector

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// DateVerdict classifies a proposition date against the cursor's window.
type DateVerdict int

const (
	// DateWithin means the date falls inside the configured window.
	DateWithin DateVerdict = iota
	// DateTooOld means the date precedes the window start. On portals that
	// list newest first this also means no later page can be in range.
	DateTooOld
	// DateTooNew means the date follows the window end.
	DateTooNew
)

const cursorDateLayout = "2006-01-02"

// Cursor carries the shared crawl budget across pages and concurrent
// handlers: a record limit, an inclusive date window, and a stop flag.
// Collectors consult it at page and record boundaries instead of keeping
// private counters.
type Cursor struct {
	mu      sync.Mutex
	limit   int
	taken   int
	start   time.Time
	end     time.Time
	stopped bool
}

// NewCursor builds a cursor. limit <= 0 means unlimited; empty date
// strings leave that side of the window open. Dates are YYYY-MM-DD.
func NewCursor(limit int, startDate, endDate string) (*Cursor, error) {
	cur := &Cursor{limit: limit}
	var err error
	if startDate != "" {
		cur.start, err = time.Parse(cursorDateLayout, startDate)
		if err != nil {
			return nil, eris.Wrapf(err, "collector: invalid start date %q", startDate)
		}
	}
	if endDate != "" {
		cur.end, err = time.Parse(cursorDateLayout, endDate)
		if err != nil {
			return nil, eris.Wrapf(err, "collector: invalid end date %q", endDate)
		}
	}
	if !cur.start.IsZero() && !cur.end.IsZero() && cur.end.Before(cur.start) {
		return nil, eris.Errorf("collector: end date %s precedes start date %s", endDate, startDate)
	}
	return cur, nil
}

// Take reserves one record slot. It returns false once the limit is
// reached or the cursor has been stopped; reaching the limit stops the
// cursor for every other handler.
func (c *Cursor) Take() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	if c.limit > 0 && c.taken >= c.limit {
		c.stopped = true
		return false
	}
	c.taken++
	return true
}

// Stop halts the crawl. Collectors call it when a date-ordered listing
// walks past the window start.
func (c *Cursor) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

// Exhausted reports whether the crawl should end. Checked at page
// boundaries before scheduling more requests.
func (c *Cursor) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return true
	}
	return c.limit > 0 && c.taken >= c.limit
}

// Taken returns how many record slots have been reserved.
func (c *Cursor) Taken() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taken
}

// StartISO returns the window start as YYYY-MM-DD, or "" when that side
// is open. Collectors that can filter server-side pass it along.
func (c *Cursor) StartISO() string {
	if c.start.IsZero() {
		return ""
	}
	return c.start.Format(cursorDateLayout)
}

// EndISO returns the window end as YYYY-MM-DD, or "" when open.
func (c *Cursor) EndISO() string {
	if c.end.IsZero() {
		return ""
	}
	return c.end.Format(cursorDateLayout)
}

// CheckYear classifies a bare year against the window. Listings that
// only show the legislative year fall back to this coarser check.
func (c *Cursor) CheckYear(year string) DateVerdict {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return DateWithin
	}
	if !c.start.IsZero() && y < c.start.Year() {
		return DateTooOld
	}
	if !c.end.IsZero() && y > c.end.Year() {
		return DateTooNew
	}
	return DateWithin
}

// CheckDate classifies an ISO date against the window. Unparseable or
// empty dates count as within the window so that records with unusual
// date formats are not silently skipped.
func (c *Cursor) CheckDate(isoDate string) DateVerdict {
	if isoDate == "" {
		return DateWithin
	}
	t, err := time.Parse(cursorDateLayout, isoDate)
	if err != nil {
		return DateWithin
	}
	if !c.start.IsZero() && t.Before(c.start) {
		return DateTooOld
	}
	if !c.end.IsZero() && t.After(c.end) {
		return DateTooNew
	}
	return DateWithin
}

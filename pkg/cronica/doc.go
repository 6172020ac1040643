// Package cronica builds clinical consultation timelines: it normalizes
// raw clinical events for display, merges repeated symptom mentions, links
// diagnoses to the symptoms their evidence cites, filters the result and
// groups it by the viewer's local day.
//
// Quick start:
//
//	c, err := cronica.New(cronica.WithLocale("es"), cronica.WithLocation(bogota))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events := c.Process(session.Events)
//	visible := c.Filter(events, cronica.Filter{EventTypes: []string{"diagnosis"}})
//	for _, g := range c.GroupByDate(visible) {
//	    fmt.Println(g.Label, len(g.Events))
//	}
//
// A Cronica value is immutable and safe for concurrent use. Bad records
// never fail a call: unparseable timestamps degrade to placeholder labels
// and are logged.
package cronica

// Package client implements the browser side of the boundary marker
// protocol in Go: finding markers in a rendered document, pairing start and
// end records, and resolving the references a session host sends back to
// the positions where components attach.
//
// Typical use mirrors what a client runtime does when a page loads:
//
//	doc, err := client.Discover(resp.Body)
//	session := client.NewSessionDescriptor(doc.Server, appState)
//	records, err := session.StartRecords()   // sent to the session host
//	session.Initialize(sessionID)
//	el, err := session.Resolve("0", componentID)
//
// Components added by script before the session starts are registered in
// PendingRoots and win over document markers during resolution.
package client

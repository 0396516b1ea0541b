// Package flows creates and tracks flows instantiated from gallery templates.
//
// Create copies a template's graph into a new flow with a UUID, an owner, an
// optional folder and a name that is unique within that folder: a second
// "Business Analyst" becomes "Business Analyst (1)". The caller navigates to
// the flow at Path(id).
//
// Flows are held in memory.
package flows

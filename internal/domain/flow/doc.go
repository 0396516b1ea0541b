/*
Package flow defines the flow template model shared by the gallery, the
registry and the flow store client.

A Template carries display metadata (name, description, tags, owner, folder)
and a Graph of nodes, edges and a viewport. Decode parses JSON with sonic and
runs Validate, which checks struct constraints with go-playground/validator
and then graph consistency: node ids are unique, every edge joins two distinct
existing nodes, and named handles exist on the nodes they reference. Handles
may be bare names or the editor's encoded form, which ParseHandle reads.

Documents come from the flow editor and carry far more than the model names.
Every object type keeps the rest in its Extra, so encoding a decoded template
gives back the stored document.

Templates handed out by the registry are copies made with Clone.
*/
package flow

/*
Package gallery is the template gallery: it reads templates from the registry,
keeps the Business Analyst entry current, and turns a selection into a flow.

Initialize fetches the Business Analyst template from the flow store. When the
fetch succeeds the template is promoted in the registry; when it fails the
registry is left alone and the static copy keeps serving. Initialize never
returns an error.

Refresh runs Initialize in the background. It is triggered at startup and
whenever the sdlc category is browsed; a refresh already in flight absorbs
further triggers. Wait blocks until background refreshes finish.
*/
package gallery

// Packages lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains the search result stash (Redis or memory), the CSV
// export format, export storage (filesystem or S3), background export
// jobs (using Redis/Asynq) and the HTML renderer.
package lib

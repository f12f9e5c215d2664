// Package server implements the datatracker web interface.
//
// # Endpoints
//
//   - GET / - home page
//   - GET|POST /accounts/login/ - sign in; POST is rate limited per client IP
//   - POST /accounts/logout/ - sign out
//   - GET /doc/ and GET /doc/{name}/ - document list and document page
//   - GET|POST /doc/{name}/edit/ - edit a document; requires sign in
//   - GET /secr/ - secretariat tools; staff only
//   - GET /rfc/{file} - RFC text from the RFC_PATH directory
//   - GET /archive/id/{file} - draft text from INTERNET_DRAFT_PATH, then
//     INTERNET_DRAFT_ARCHIVE_DIR
//   - GET /meeting/{number}/agenda.ics - meeting agenda as iCalendar
//   - GET /ipr/ - IPR disclosures; /ipr/update/ permanently redirects here
//   - GET /static/* - embedded stylesheets
//
// # Authentication
//
// Passwords are stored as argon2id hashes. A successful sign in stores a
// random token in the "sessionid" cookie. Tokens expire after a day and
// are swept hourly while the server runs.
//
// Path settings are read from config.Current on every request, so a
// config.Override takes effect without rebuilding the server.
package server

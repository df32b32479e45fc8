// Package placeholder renders notification and confirmation templates.
//
// A template holds {{key}} tokens addressing submitted field values (by
// "<type>_<index>" or raw field id), {{wp.key}} tokens addressing request and
// site data, and the aggregate {{all_data}}. Substitution is a single literal
// pass over the template: values are inserted verbatim and never rescanned,
// and tokens nobody supplied are removed from the template text.
package placeholder

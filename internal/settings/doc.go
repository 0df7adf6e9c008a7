// Package settings resolves the Weblate container configuration from
// environment variables into a typed tree.
//
// Resolution follows the contract of the stock image: required variables
// (admin contact, PostgreSQL credentials, sender addresses) must be present,
// optional ones fall back to documented defaults, and credentials toggle the
// corresponding authentication backends and machine translation services.
// The tree is consumed by the render package, which turns it into a Django
// settings module or a data document, and by the probe package, which checks
// the backends it points to.
package settings

// Package textutil sanitizes user-supplied names before they touch the
// filesystem: uploaded filenames, job titles used in artifact names, and
// identifiers folded into log keys.
package textutil

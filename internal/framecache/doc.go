// Package framecache keeps converged frames of an interactive session so
// that returning to an earlier view shows it at once instead of
// re-accumulating from the first pass.
//
//	c := framecache.New[fractal.Params](64 << 20)
//	c.Put(p, pm.Data(), passes)
//	pix, passes, ok := c.Get(p)
//
// The cache is bounded by the total size of its pixel buffers. When a Put
// goes over the budget, least recently used frames are evicted until the
// cache holds three quarters of the budget.
//
// Cache is safe for concurrent use and must not be copied after creation.
package framecache

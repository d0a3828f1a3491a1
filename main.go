// Command tagcheck inspects the SEO meta tags of web pages.
//
// Usage:
//
//	tagcheck serve
//	tagcheck analyze https://example.com/ [--format json]
package main

func main() {
	Execute()
}

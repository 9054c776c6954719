// Package resolver decides, per request, which strategy answers it:
// bypass pattern, explicit mapping, local file or the upstream. Stages run in
// that fixed order and the first terminal stage wins.
package resolver

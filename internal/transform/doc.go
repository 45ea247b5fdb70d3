// Package transform turns discovered candidates into accepted wallpaper
// files: download into scratch storage, centered crop to the target aspect
// ratio, and a brightness gate that drops glare-inducing images. Each
// candidate is processed independently; the pipeline fans out across a
// bounded worker pool and rejoins in discovery order.
package transform

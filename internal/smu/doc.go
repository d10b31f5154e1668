// Package smu decodes the PM table that the ryzen_smu kernel module
// exports for AMD Ryzen processors.
//
// The pieces, leaf first:
//
//   - [Codename] and its [Topology]: processor family identity and
//     core-layout defaults, looked up by the driver's numeric id.
//   - [Layout] and [Registry]: byte offsets of every field per table
//     version. New table versions are new registry entries.
//   - [Access]: the sysfs read surface (metadata entries and raw table).
//   - [ResolveCoreCount]: the single core count used for one decode.
//   - [Decode]: bytes + version + codename + core count → [Snapshot].
//   - [Reader]: one poll wiring all of the above.
//
// Every failure is an [*Error] with an [ErrorKind]. Nothing in this
// package logs, retries or caches.
package smu

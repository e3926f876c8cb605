// Package mirror provides object-store copies of the artifact directory.
//
// Two backends are available:
//
//   - NATS JetStream object store (NewNATS)
//   - S3 or any S3-compatible endpoint such as MinIO (NewS3)
//
// Both implement artifact.Mirror. Objects are keyed by the artifact file
// name, so a mirror can be rebuilt from the local directory at any time.
package mirror
